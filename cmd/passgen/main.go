package main

import (
	"flag"
	"fmt"
	"log"

	"clinic-booking/internal/auth"
)

var (
	pass = flag.String("pass", "", "Password to encrypt")
	cost = flag.Int("cost", 0, "bcrypt cost, the library default when zero")
)

func main() {
	flag.Parse()
	if *pass == "" {
		log.Fatal("no password was given")
	}

	passHash, err := auth.EncryptPassword(*pass, *cost)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(passHash)
}
