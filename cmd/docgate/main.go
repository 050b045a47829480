// Docgate submits signed documents to the CRPT document creation endpoint
// while keeping the combined call rate within a fixed per-period budget.
//
// Usage:
//
//	# Submit one document
//	docgate submit --document order.json --signature order.sig
//
//	# Print the request body without sending it
//	docgate submit --document order.json --signature-text "$SIG" --dry-run
//
//	# Submit every <name>.json / <name>.sig pair dropped into a directory
//	docgate watch --config docgate.yaml
//
//	# Inspect the submission journal
//	docgate journal list --since 24h --outcome rejected
package main

func main() {
	Execute()
}
