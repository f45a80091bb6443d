// czdbsearch resolves IP addresses to their regions using a CZDB database
// file.  See the environment variables in internal/cmd for configuration.
package main

import "github.com/cz88/czdb-go/internal/cmd"

func main() {
	cmd.Main()
}
