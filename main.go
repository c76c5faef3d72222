package main

import "github.com/redactyl/textredact/cmd/textredact"

func main() { textredact.Execute() }
