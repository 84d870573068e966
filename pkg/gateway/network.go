package gateway

import "fmt"

// NetworkDescriptor identifies the chain every pooled endpoint must serve.
// An empty ENSAddress means the network has no naming-service root.
type NetworkDescriptor struct {
	Name       string `json:"name" yaml:"name"`
	ChainID    uint64 `json:"chainId" yaml:"chain_id"`
	ENSAddress string `json:"ensAddress,omitempty" yaml:"ens_address"`
}

func (n NetworkDescriptor) Equal(o NetworkDescriptor) bool {
	return n == o
}

func (n NetworkDescriptor) String() string {
	if n.ENSAddress == "" {
		return fmt.Sprintf("%s(%d)", n.Name, n.ChainID)
	}
	return fmt.Sprintf("%s(%d, ens=%s)", n.Name, n.ChainID, n.ENSAddress)
}
