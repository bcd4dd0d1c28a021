// Command zonesync copies the records of a domain from an upstream
// authoritative name server into a cloud-hosted DNS zone.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/rjwalsh/zonesync"
	"golang.org/x/term"
)

var config = struct {
	Domain     string
	Nameserver string
	HostedZone string
	Types      string
	Provider   string
	KeyFile    string
	Verbose    bool
}{}

func init() {
	flag.StringVar(&config.Domain, "d", config.Domain, "Domain to transfer from the upstream server")
	flag.StringVar(&config.Nameserver, "s", config.Nameserver, "Upstream name server to transfer the zone from (host or host:port)")
	flag.StringVar(&config.HostedZone, "z", config.HostedZone, "Hosted zone ID at the hosting provider")
	flag.StringVar(&config.Types, "t", strings.Join(zonesync.DefaultRecordTypes, ","), "Comma-separated record types to sync")
	flag.StringVar(&config.Provider, "p", "route53", "Hosting provider: route53 or cloudflare")
	flag.StringVar(&config.KeyFile, "k", filepath.Join(os.Getenv("HOME"), ".cloudflare"), "Path to cloudflare API credentials file (cloudflare provider only)")
	flag.BoolVar(&config.Verbose, "v", false, "Enable verbose logging")
	flag.Parse()

	if config.Verbose {
		logger = log.Default()
	}
}

var logger *log.Logger = log.New(io.Discard, "", log.LstdFlags)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {

	if err := validate(); err != nil {
		return err
	}
	logger.Printf("config is valid: %+v", config)

	opts := []zonesync.Option{
		zonesync.UsingNameserver(config.Nameserver),
		zonesync.ToHostedZone(config.HostedZone),
		zonesync.WithRecordTypes(splitTypes(config.Types)...),
	}
	if config.Verbose {
		opts = append(opts, zonesync.WithLogger(logger))
	}

	switch config.Provider {
	case "route53":
		opts = append(opts, zonesync.UsingRoute53())
	case "cloudflare":
		key, err := readKey(config.KeyFile)
		if err != nil {
			return fmt.Errorf("error reading key: %w", err)
		}
		logger.Println("successfully read key from key file")
		opts = append(opts, zonesync.UsingCloudflare(key))
	default:
		return fmt.Errorf("unknown provider %q; expected route53 or cloudflare", config.Provider)
	}

	c, err := zonesync.New(config.Domain, opts...)
	if err != nil {
		return err
	}

	result, err := c.Sync(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("synced %d record sets to zone %s in %d batches\n", result.Upserts, config.HostedZone, result.Batches)
	return nil
}

func splitTypes(s string) []string {
	var types []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			types = append(types, t)
		}
	}
	return types
}

func validate() error {

	if config.Domain == "" {
		return errors.New("error: domain cannot be empty")
	}
	if !strings.Contains(config.Domain, ".") {
		return errors.New("error: domain must have at least one dot")
	}
	if config.Nameserver == "" {
		return errors.New("error: upstream name server cannot be empty")
	}
	if config.HostedZone == "" {
		return errors.New("error: hosted zone ID cannot be empty")
	}

	if config.Provider == "cloudflare" {
		_, err := os.Stat(config.KeyFile)
		if os.IsNotExist(err) {
			logger.Printf("key file \"%s\" does not exist\n", config.KeyFile)
			if err := runSetup(); err != nil {
				return fmt.Errorf("setup: %w", err)
			}
		}
		if err := verifyPermissions(config.KeyFile); err != nil {
			return err
		}
	}

	return nil
}

func runSetup() error {
	logger.Println("running setup")
	fmt.Printf("Enter Cloudflare API Key: \n")
	bytekey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("error reading from stdin: %w", err)
	}
	key := string(bytekey)

	api, err := cloudflare.NewWithAPIToken(key)
	if err != nil {
		return fmt.Errorf("error creating api client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Println("verifying token...")
	result, err := api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	logger.Println("token verified successfully")

	logger.Printf("creating key file at \"%s\"\n", config.KeyFile)
	f, err := os.OpenFile(config.KeyFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("unable to create \"%s\": %w", config.KeyFile, err)
	}
	defer f.Close()
	fmt.Fprintln(f, key)
	logger.Printf("token written to \"%s\"\n", config.KeyFile)
	return nil
}

func readKey(path string) (key string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error reading key: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	keyb, _, err := r.ReadLine()
	if err != nil {
		return "", fmt.Errorf("error reading line: %w", err)
	}
	return string(keyb), nil
}

func verifyPermissions(path string) error {

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking keyfile permissions: %w", err)
	}

	if perms := info.Mode().Perm(); perms != 0600 {
		return fmt.Errorf("invalid permissions for \"%s\": %w", path, permissionError(perms))
	}

	return nil
}

type permissionError fs.FileMode

func (pe permissionError) Error() string {
	return fmt.Sprintf("expected file permissions \"-rw-------\"; found \"%s\"", fs.FileMode(pe))
}
