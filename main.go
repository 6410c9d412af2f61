package main

import (
	"os"

	"airflow/cli"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
