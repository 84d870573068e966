package gateway

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Validate checks that endpoints form a usable pool and returns the network
// they share.
func Validate(endpoints []Endpoint) (NetworkDescriptor, error) {
	return validate(endpoints, false, zap.NewNop())
}

func validate(endpoints []Endpoint, lenient bool, logger *zap.Logger) (NetworkDescriptor, error) {
	if len(endpoints) == 0 {
		return NetworkDescriptor{}, ErrEmptyPool
	}
	for i, ep := range endpoints {
		if isNil(ep) {
			return NetworkDescriptor{}, fmt.Errorf("%w: endpoint %d is nil", ErrInvalidEndpoint, i)
		}
	}

	network := endpoints[0].Network()
	for i, ep := range endpoints[1:] {
		other := ep.Network()
		if network.Equal(other) {
			continue
		}
		if !lenient {
			return NetworkDescriptor{}, fmt.Errorf("%w: endpoint 0 serves %s, endpoint %d serves %s",
				ErrNetworkMismatch, network, i+1, other)
		}
		logger.Warn("networks mismatch",
			zap.Stringer("expected", network),
			zap.Stringer("got", other),
			zap.Int("endpoint", i+1))
	}
	return network, nil
}

func isNil(ep Endpoint) bool {
	if ep == nil {
		return true
	}
	v := reflect.ValueOf(ep)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
