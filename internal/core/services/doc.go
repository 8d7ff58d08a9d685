// Package services implements the application use cases behind the
// driving ports: ingestion, querying, grounded answers, and document
// management. Services depend only on the driven ports, never on concrete
// adapters.
package services
