package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authgate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-i string   token issuer
//	-k string   identifier kind ("email" or "username")
//	-m string   key source kind ("file" or "s3")
//	-u string   public key source (PEM literal, path, or S3 object key)
//	-p string   private key source (PEM literal, path, or S3 object key)
//	-t int      token validity, hours
//	-x string   S3 root user
//	-w string   S3 root password
//	-b string   S3 bucket name
//	-r string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - The duration flag is accepted as an integer in hours and then converted
//     to a time.Duration value.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-i", "-k", "-m", "-u", "-p", "-t", "-x", "-w", "-b", "-r", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port for the HTTP endpoint")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port for the gRPC endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Issuer, "i", config.Issuer, "token issuer")
	fs.StringVar(&config.IdentifierKind, "k", config.IdentifierKind, "identifier kind (email|username)")
	fs.StringVar(&config.KeySourceKind, "m", config.KeySourceKind, "key source kind (file|s3)")
	fs.StringVar(&config.PublicKey, "u", config.PublicKey, "public key source")
	fs.StringVar(&config.PrivateKey, "p", config.PrivateKey, "private key source")

	tokenTTL := fs.Int("t", int(config.TokenTTL.Hours()), "token_ttl (in hours)")

	fs.StringVar(&config.S3RootUser, "x", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "w", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenTTL = time.Duration(*tokenTTL) * time.Hour
}
