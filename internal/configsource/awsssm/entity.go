// Package awsssm is an example abstract-store rehydration source: it polls
// AWS SSM Parameter Store and feeds configstore.Store through its public
// mutation API (SyncGroup), never reaching into internal/mapping directly.
package awsssm

import "github.com/omarluq/mapping-engine/internal/configdomain"

// entity is a group config entity assembled from a subtree of SSM
// parameters sharing a common instance segment. It never reaches beyond the
// configdomain.Entity contract: the mapping engine reads it only through
// providers that know its concrete attribute names.
type entity struct {
	configType configdomain.ConfigType
	instanceID string
	version    int64
	attrs      map[string]string
}

func (e *entity) Type() configdomain.ConfigType { return e.configType }
func (e *entity) Kind() configdomain.Kind       { return configdomain.Group }
func (e *entity) InstanceID() string            { return e.instanceID }
func (e *entity) Version() int64                { return e.version }

// Attr returns the value of a parameter attribute (the final path segment
// under the instance), and whether it was present.
func (e *entity) Attr(key string) (string, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

var _ configdomain.Entity = (*entity)(nil)
