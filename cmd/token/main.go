package main

import (
	"flag"
	"fmt"
	"os"

	"spadesk/pkg/auth"
	"spadesk/pkg/config"
)

const JobName = "token"

func main() {
	operator := flag.String("operator", "", "operator id placed in the token subject")
	name := flag.String("name", "", "display name of the operator")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to TOKEN_TTL")
	flag.Parse()

	cfg := config.Load(JobName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET is required to sign tokens")
	}
	if *operator == "" {
		flag.Usage()
		os.Exit(2)
	}

	lifetime := cfg.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := auth.Issue([]byte(cfg.JWTSecret), *operator, *name, lifetime)
	if err != nil {
		cfg.Log.Fatal("Failed to issue token", "error", err)
	}
	fmt.Println(token)
}
