package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"log"
	"os"
	"path/filepath"
)

var (
	dir  = flag.String("dir", "", "Directory where the key will be stored")
	bits = flag.Int("bits", 2048, "Size of the RSA key")
)

// writePEM writes the private key as a PKCS#1 PEM file readable only by its owner.
func writePEM(filename string, privateKey *rsa.PrivateKey) error {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	pemKey := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}
	if err = pem.Encode(file, pemKey); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func main() {
	flag.Parse()
	if *dir == "" {
		log.Fatal("no directory was given")
	}
	if *bits < 2048 {
		log.Fatal("keys shorter than 2048 bits are not accepted")
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, *bits)
	if err != nil {
		log.Fatalln(err)
	}

	filename := filepath.Join(*dir, "private.pem")
	if err = writePEM(filename, privateKey); err != nil {
		log.Fatalln(err)
	}
	log.Println("private key written to", filename)
}
