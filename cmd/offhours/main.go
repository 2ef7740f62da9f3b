// offhours screens calls and messages outside configured business hours.
package main

import "github.com/ppiankov/offhours/internal/cli"

func main() {
	cli.Execute()
}
