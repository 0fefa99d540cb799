// Package integration contains the Integration bounded context.
// This context describes the enterprise backend that supplies equipment
// master data and receives sales orders.
//
// Key concepts:
//   - Gateway: Port interface for one environment's remote-call interface
//   - Transaction: One logical unit of work (create + commit) on the gateway
//   - Connection: A gateway bound to one session's credentials, with call
//     timeout and connection limits applied
//   - Connector: Resolves environments and produces Connections
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
