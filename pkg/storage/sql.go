package storage

import (
	"database/sql"
	"time"
)

func buildCreateRacesTable() string {
	return `CREATE TABLE IF NOT EXISTS races (
		name TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL);`
}

func buildCreateSubscribersTable() string {
	return `CREATE TABLE IF NOT EXISTS subscribers (
		chatid INTEGER PRIMARY KEY,
		name TEXT NOT NULL);`
}

func buildSaveRaceCommand(name string, payload []byte, at time.Time) (string, []any) {
	return `INSERT OR REPLACE INTO races (name, payload, updated_at) VALUES (?, ?, ?)`,
		[]any{name, string(payload), at.UnixMilli()}
}

func buildSelectRaceCommand(name string) (string, []any, func(*sql.Rows) ([]byte, error)) {
	return `SELECT payload FROM races WHERE name = ?`, []any{name}, processSelectRaceRows
}

func processSelectRaceRows(rows *sql.Rows) ([]byte, error) {
	defer rows.Close()

	// only can be one row
	if rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		return []byte(payload), nil
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

func buildInsertSubscriberCommand(user TelegramUser) (string, []any) {
	return `INSERT OR REPLACE INTO subscribers (chatid, name) VALUES (?, ?)`, []any{user.ChatID, user.Name}
}

func buildDeleteSubscriberCommand(chatID int64) (string, []any) {
	return `DELETE FROM subscribers WHERE chatid = ?`, []any{chatID}
}

func buildSelectSubscribersCommand() (string, func(*sql.Rows) ([]TelegramUser, error)) {
	return `SELECT chatid, name FROM subscribers ORDER BY chatid`, processSelectSubscribersRows
}

func processSelectSubscribersRows(rows *sql.Rows) ([]TelegramUser, error) {
	defer rows.Close()

	users := make([]TelegramUser, 0)
	for rows.Next() {
		var chatID int64
		var name string
		if err := rows.Scan(&chatID, &name); err != nil {
			return users, err
		}
		users = append(users, TelegramUser{
			ChatID: chatID,
			Name:   name,
		})
	}
	return users, rows.Err()
}
