// pacgate — fail-closed admission gate for Protocol Acknowledgment
// Certificates. All behavior lives in internal/cli.
package main

import "github.com/ppiankov/pacgate/internal/cli"

func main() {
	cli.Execute()
}
