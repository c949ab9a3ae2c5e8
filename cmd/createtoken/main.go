package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"hadirku.id/hadirku/security"
)

// Mints a bearer token for a device or operator. The signing secret comes
// from HADIRKU_SIGNING_SECRET (base64), same as the server reads it.
func main() {
	id := flag.Uint("id", 0, "user id")
	name := flag.String("name", "", "display name")
	role := flag.String("role", security.RoleEmployee, "admin or employee")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *id == 0 || *name == "" {
		flag.Usage()
		os.Exit(2)
	}

	secret := os.Getenv("HADIRKU_SIGNING_SECRET")
	if secret == "" {
		log.Fatal("HADIRKU_SIGNING_SECRET is not set")
	}

	token, err := security.CreateIdentityToken(&security.Identity{
		ID:   *id,
		Name: *name,
		Role: *role,
	}, secret, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
