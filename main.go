package main

import (
	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/cmd/server"
)

func main() {
	server.NewServer().Run()
}
