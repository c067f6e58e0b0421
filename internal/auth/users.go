package auth

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrUserNotFound = errors.New("auth: user not found")

// User is a staff account on the dashboard.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FullName     string    `json:"full_name" db:"full_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, u User) error
}

// MemoryUserStore holds users in memory for tests and local bring-up.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]User // keyed by id
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: map[string]User{}}
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id string) (User, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) Create(ctx context.Context, u User) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

// PostgresUserStore reads staff accounts from the users table.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

const userColumns = `id, email, full_name, password_hash, role, created_at`

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, q, email))
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, q, id))
}

func (s *PostgresUserStore) Create(ctx context.Context, u User) error {
	const q = `
INSERT INTO users (id, email, full_name, password_hash, role, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	_, err := s.db.ExecContext(ctx, q, u.ID, u.Email, u.FullName, u.PasswordHash, u.Role, u.CreatedAt)
	return err
}

func (s *PostgresUserStore) scanOne(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
