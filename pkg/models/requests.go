package models

import (
	"sort"

	mapset "github.com/deckarep/golang-set"
)

// WriteRequest is a single attribute write received from a central
type WriteRequest struct {
	Peer               string
	CharacteristicUUID string
	Offset             int
	Value              []byte
}

// Subscriber is a connected central and the characteristics it subscribed to
type Subscriber struct {
	Peer            string
	Characteristics mapset.Set
}

// NewSubscriber makes a subscriber with no subscriptions yet
func NewSubscriber(peer string) *Subscriber {
	return &Subscriber{Peer: peer, Characteristics: mapset.NewSet()}
}

// CharacteristicUUIDs returns the subscribed characteristic uuids in sorted order
func (s *Subscriber) CharacteristicUUIDs() []string {
	ret := []string{}
	for _, v := range s.Characteristics.ToSlice() {
		ret = append(ret, v.(string))
	}
	sort.Strings(ret)
	return ret
}
