// Command keygen creates the RSA key pair the token issuer signs with.
// Key generation is an explicit operator step, never done implicitly at
// server startup.
package main

import (
	"flag"
	"fmt"
	"log"

	"creator-marketplace-service/internal/security"
)

func main() {
	privatePath := flag.String("private", "keys/private.pem", "path to write the private key")
	publicPath := flag.String("public", "keys/public.pem", "path to write the public key")
	flag.Parse()

	if err := security.GenerateKeyPair(*privatePath, *publicPath); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s and %s\n", *privatePath, *publicPath)
}
