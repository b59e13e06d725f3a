// menuharvest discovers restaurants, harvests their menus from the open
// web, and loads the structured rows into Postgres.
package main

import "github.com/platewise/menuharvest/cmd"

func main() {
	cmd.Execute()
}
