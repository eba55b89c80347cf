// Package agenttest provides a contract test suite for agent providers.
//
// A provider passes when every contract holds against a live agent:
//
//	func TestParity(t *testing.T) {
//		ag, _ := local.New()
//		agenttest.Verify(t, ag)
//	}
package agenttest

// AllContracts returns all test cases for the contract test suite.
func AllContracts() []TestCase {
	const initialCapacity = 32

	contracts := make([]TestCase, 0, initialCapacity)

	contracts = append(contracts, execContracts()...)
	contracts = append(contracts, fileContracts()...)
	contracts = append(contracts, errorContracts()...)
	contracts = append(contracts, lifecycleContracts()...)

	return contracts
}
