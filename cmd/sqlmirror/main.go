package main

import "github.com/dbsmedya/sqlmirror/cmd/sqlmirror/cmd"

func main() {
	cmd.Execute()
}
