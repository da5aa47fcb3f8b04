package main

import "github.com/ytdlstem/ytdlstem/cmd"

func main() {
	cmd.Execute()
}
