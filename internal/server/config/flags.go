package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/moodlebridge/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-m", "-k", "-w", "-s", "-t", "-o", "-l", "-b", "-g", "-e", "-u", "-p"}

// parseFlags overlays command-line flags onto config.
//
//	-a string    HTTP bind address
//	-d string    PostgreSQL DSN
//	-m string    Moodle web-service URL
//	-k string    Moodle web-service token
//	-w duration  Moodle request timeout (0 = transport default)
//	-s string    session token HMAC secret
//	-t duration  session validity
//	-o string    comma separated CORS origins
//	-l string    log backend (slog|zap)
//	-b, -g, -e   S3 bucket, region, endpoint
//	-u, -p       S3 access key, secret
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MoodleURL, "m", config.MoodleURL, "moodle web-service URL")
	fs.StringVar(&config.MoodleToken, "k", config.MoodleToken, "moodle web-service token")
	fs.DurationVar(&config.MoodleTimeout, "w", config.MoodleTimeout, "moodle request timeout")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.SessionValidityDuration, "t", config.SessionValidityDuration, "session validity")
	origins := fs.String("o", "", "allowed CORS origins, comma separated")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend (slog|zap)")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for export archive")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 secret key")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *origins != "" {
		config.AllowedOrigins = splitList(*origins)
	}
	return nil
}
