/*****************************************************************************************************************/

package main

/*****************************************************************************************************************/

import (
	"github.com/lodestar-space/startracker/cmd"
)

/*****************************************************************************************************************/

func main() {
	cmd.Execute()
}

/*****************************************************************************************************************/
