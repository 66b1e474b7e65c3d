package cmd

import (
	"fmt"
	"io"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=v1.2.3".
var Version = "dev"

const banner = `
  _____                       ____          _
 | ____|_  ____ _ _ __ ___   / ___|___   __| | ___
 |  _| \ \/ / _` + "`" + ` | '_ ` + "`" + ` _ \ | |   / _ \ / _` + "`" + ` |/ _ \
 | |___ >  < (_| | | | | | || |__| (_) | (_| |  __/
 |_____/_/\_\__,_|_| |_| |_| \____\___/ \__,_|\___|

`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  Exam Code Client - Version %s\x1b[0m\n\n", Version)
}
