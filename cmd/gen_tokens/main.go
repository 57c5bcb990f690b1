package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"yatube-backend/internal/config"
	"yatube-backend/internal/data"
	"yatube-backend/internal/service"
)

// This helper reads a CSV of usernames and writes an access token per user to
// an output CSV, for load tests against the authenticated endpoints.
// Input CSV requirements:
//   - Contains a username column. A header row is detected if present
//     (field name "username" case-insensitive); otherwise the first column is used.
//   - Users missing from the database are created with -password when -create is set.
//
// Output CSV contains: token,username
//
// Usage:
//
//	go run ./cmd/gen_tokens -in users.csv -out tokens.csv -config configs/app.yaml
func main() {
	in := flag.String("in", "users.csv", "input CSV file (must contain a username column)")
	out := flag.String("out", "tokens.csv", "output CSV file")
	cfgPath := flag.String("config", "configs/app.yaml", "config file")
	create := flag.Bool("create", false, "create users that do not exist yet")
	password := flag.String("password", "loadtest-pass", "password for created users")
	flag.Parse()

	if *in == "" {
		log.Fatal("input file is required, use -in")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := data.NewMySQL(cfg.MySQL, zap.NewNop())
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	users := service.NewUserService(db)
	tokens := service.NewTokenService(users, cfg.JWT)

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		log.Fatalf("read header/data: %v", err)
	}
	nameIdx := usernameColumn(header)
	var firstRow []string
	if nameIdx < 0 {
		nameIdx = 0
		firstRow = header
	}

	outFile, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer outFile.Close()
	writer := csv.NewWriter(outFile)
	defer writer.Flush()

	ctx := context.Background()
	processRow := func(row []string) error {
		if nameIdx >= len(row) {
			return errors.New("username column out of range")
		}
		username := strings.TrimSpace(row[nameIdx])
		if username == "" {
			return nil
		}
		user, err := users.FindByUsername(ctx, username)
		if errors.Is(err, service.ErrNotFound) && *create {
			user, err = users.Create(ctx, username, *password, false)
		}
		if err != nil {
			return fmt.Errorf("user %s: %w", username, err)
		}
		pair, err := tokens.IssuePair(user)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		if err := writer.Write([]string{pair.Access, username}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	}

	count := 0
	if firstRow != nil {
		if err := processRow(firstRow); err != nil {
			log.Printf("process row error: %v", err)
		} else {
			count++
		}
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("read row error: %v", err)
			continue
		}
		if err := processRow(row); err != nil {
			log.Printf("process row error: %v", err)
			continue
		}
		count++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Fatalf("flush output: %v", err)
	}
	log.Printf("generated %d tokens to %s", count, *out)
}

// usernameColumn returns the index of the username header, or -1 when the
// row looks like data.
func usernameColumn(row []string) int {
	for i, v := range row {
		if strings.EqualFold(strings.TrimSpace(v), "username") {
			return i
		}
	}
	return -1
}
