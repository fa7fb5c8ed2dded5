package ruleprovider_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omarluq/mapping-engine/internal/configstore"
	"github.com/omarluq/mapping-engine/internal/mapping"
	"github.com/omarluq/mapping-engine/internal/ruleprovider"
)

func writeRuleFile(t *testing.T, path, mappingName, host string) {
	t.Helper()
	content := "mapping.name=" + mappingName + "\nhost=" + host + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileSource_LoadAllBindsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, filepath.Join(dir, "ldap.rule"), "LdapConnection", "ldap.internal")

	store := configstore.New()
	svc := mapping.NewService(store, mapping.NewDispatcher(2))
	defer svc.Shutdown()

	src, err := ruleprovider.NewFileSource(dir, svc)
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.LoadAll())

	m, ok := svc.GetMapping("LdapConnection")
	require.True(t, ok)
	props, err := m.Resolve()
	require.NoError(t, err)
	require.Equal(t, "ldap.internal", props["host"].ScalarValue())
}

func TestFileSource_WatchPicksUpNewFile(t *testing.T) {
	dir := t.TempDir()

	store := configstore.New()
	svc := mapping.NewService(store, mapping.NewDispatcher(2))
	defer svc.Shutdown()

	src, err := ruleprovider.NewFileSource(dir, svc, ruleprovider.WithFileDebounceDelay(10*time.Millisecond))
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go src.Watch(ctx)

	// force resolver creation before the provider binds, so Bind's
	// discovery loop has a resolver to attach to.
	_, _ = svc.GetMapping("LdapConnection")

	writeRuleFile(t, filepath.Join(dir, "ldap.rule"), "LdapConnection", "ldap.internal")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m, ok := svc.GetMapping("LdapConnection")
		if ok {
			props, err := m.Resolve()
			if err == nil && props["host"].ScalarValue() == "ldap.internal" {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected rule file to be bound within deadline")
}
