// Command secret stores and removes the credentials taskboard reads from
// the system keyring.
//
//	secret set database-url
//	secret set imap <source-id>
//	secret set redis <source-id>
//	secret delete imap <source-id>
//
// The value is prompted for, or read from stdin with -stdin.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/taskboard/internal/credential"
)

const usage = "usage: secret [-stdin] set|delete database-url | imap <source-id> | redis <source-id>"

func main() {
	fromStdin := flag.Bool("stdin", false, "read the value from stdin instead of prompting")
	flag.Parse()

	if err := run(flag.Args(), *fromStdin, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "secret: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, fromStdin bool, in io.Reader) error {
	if len(args) < 2 {
		return errors.New(usage)
	}
	key, err := keyFor(args[1:])
	if err != nil {
		return err
	}

	switch args[0] {
	case "set":
		var value string
		if fromStdin {
			value, err = readValue(in)
		} else {
			value, err = prompt(key)
		}
		if err != nil {
			return err
		}
		if err := credential.Set(key, value); err != nil {
			return err
		}
		fmt.Printf("stored %s\n", key)
	case "delete":
		if err := credential.Delete(key); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", key)
	default:
		return errors.New(usage)
	}
	return nil
}

// keyFor maps the command-line target onto a keyring key.
func keyFor(target []string) (string, error) {
	switch target[0] {
	case credential.KeyDatabaseURL:
		return credential.KeyDatabaseURL, nil
	case "imap", "redis":
		if len(target) < 2 || target[1] == "" {
			return "", fmt.Errorf("%s needs a source id", target[0])
		}
		kind := credential.KeyIMAPPassword
		if target[0] == "redis" {
			kind = credential.KeyRedisPassword
		}
		return credential.SourceKey(kind, target[1]), nil
	default:
		return "", fmt.Errorf("unknown secret %q", target[0])
	}
}

// readValue returns the first line of in without its line ending.
func readValue(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading value: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty value")
	}
	return line, nil
}

func prompt(key string) (string, error) {
	var value string
	err := huh.NewInput().
		Title("Value for " + key).
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("value is required")
			}
			return nil
		}).
		Value(&value).
		Run()
	if err != nil {
		return "", fmt.Errorf("reading value: %w", err)
	}
	return value, nil
}
