/**
 * @description
 * This is a development seeding tool. It truncates the account tables and
 * inserts a fixed set of accounts with funded wallets so the transfer
 * endpoints can be exercised against a fresh database.
 */

package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/pixpago/transfer-service/internal/config"
	"github.com/pixpago/transfer-service/internal/domain"
)

const (
	seedPassword     = "password123"
	seedBalanceCents = 100_000
)

type seedUser struct {
	fullName string
	email    string
	document string
	userType domain.UserType
}

var seedUsers = []seedUser{
	{"Alan Turing", "alan.turing@example.com", "11111111111", domain.UserTypeCommon},
	{"Grace Hopper", "grace.hopper@example.com", "22222222222", domain.UserTypeCommon},
	{"Edsger Dijkstra", "edsger.dijkstra@example.com", "33333333333", domain.UserTypeCommon},
	{"Donald Knuth", "donald.knuth@example.com", "44444444444", domain.UserTypeCommon},
	{"Barbara Liskov", "barbara.liskov@example.com", "55555555555", domain.UserTypeCommon},
	{"Linus Torvalds", "linus.torvalds@example.com", "66666666666", domain.UserTypeCommon},
	{"Guido van Rossum", "guido.vanrossum@example.com", "77777777777", domain.UserTypeCommon},
	{"Ada Lovelace", "ada.lovelace@example.com", "88888888888", domain.UserTypeMerchant},
	{"Niklaus Wirth", "niklaus.wirth@example.com", "99999999999", domain.UserTypeMerchant},
	{"Dennis Ritchie", "dennis.ritchie@example.com", "10101010101", domain.UserTypeMerchant},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=seed msg=\"no .env file found; using environment values\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=seed msg=\"could not load config\" err=%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=seed msg=\"could not connect to database\" err=%v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("level=fatal component=seed msg=\"could not hash seed password\" err=%v", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		log.Fatalf("level=fatal component=seed msg=\"could not begin transaction\" err=%v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE transfer_outbox, transfers, wallets, users`); err != nil {
		log.Fatalf("level=fatal component=seed msg=\"could not truncate tables\" err=%v", err)
	}

	for _, u := range seedUsers {
		userID, err := uuid.NewV7()
		if err != nil {
			log.Fatalf("level=fatal component=seed msg=\"could not generate user id\" err=%v", err)
		}
		walletID, err := uuid.NewV7()
		if err != nil {
			log.Fatalf("level=fatal component=seed msg=\"could not generate wallet id\" err=%v", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO users (id, full_name, document, email, password_hash, type) VALUES ($1, $2, $3, $4, $5, $6)`,
			userID, u.fullName, u.document, u.email, string(hash), string(u.userType))
		if err != nil {
			log.Fatalf("level=fatal component=seed msg=\"could not insert user\" email=%s err=%v", u.email, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO wallets (id, user_id, balance_amount) VALUES ($1, $2, $3)`,
			walletID, userID, seedBalanceCents)
		if err != nil {
			log.Fatalf("level=fatal component=seed msg=\"could not insert wallet\" email=%s err=%v", u.email, err)
		}

		log.Printf("level=info component=seed msg=\"seeded account\" user_id=%s email=%s type=%s balance_cents=%d",
			userID, u.email, u.userType, seedBalanceCents)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("level=fatal component=seed msg=\"could not commit\" err=%v", err)
	}
	log.Printf("level=info component=seed msg=\"seeding complete\" users=%d", len(seedUsers))
}
