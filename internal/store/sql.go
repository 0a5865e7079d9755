// internal/store/sql.go
//
// Relational implementation of the Room Store.
//
// Rooms and players are separate related records keyed by room code. The
// shared game state is a JSON document column, shadowed by a denormalized
// game_status column so that barrier and round-state conditions can be
// expressed as single conditional UPDATE statements. Each Store operation is
// one transaction, and ResetRound's all-ready check is atomic by construction.
//
// Driver is chosen by the DSN: postgres (lib/pq) for postgres:// URLs,
// sqlite3 otherwise. Queries are written with ? placeholders and rebound to
// $n for postgres. Timestamps are stored as RFC3339 UTC text (lexicographic
// order matches time order).
//
// There is no in-process caching: every operation pays its round trips.

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"wordrooms/internal/game"
	"wordrooms/internal/room"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLStore is the database-backed Store.
type SQLStore struct {
	db     *sql.DB
	driver string // "postgres" or "sqlite3"
}

// OpenSQL connects, applies migrations, and returns the store.
// postgres:// and postgresql:// DSNs select lib/pq; anything else is treated
// as a sqlite file path (WAL + busy timeout + foreign keys, as usual).
func OpenSQL(dsn string) (*SQLStore, error) {
	driver := "sqlite3"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "postgres"
	}

	if driver == "sqlite3" {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
		dsn += "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// migrate executes the embedded migration files in lexical order.
// Statements are idempotent (IF NOT EXISTS), so re-running is safe.
func (s *SQLStore) migrate() error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		log.Debug().Str("migration", name).Msg("applied")
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

// q rebinds ? placeholders to $n when running on postgres.
func (s *SQLStore) q(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// ------------------------------ rooms --------------------------------------

func (s *SQLStore) CreateRoom(ctx context.Context, r *room.Room) error {
	stateJSON, err := json.Marshal(r.Game)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.q(
		`INSERT INTO rooms (code, host_id, target_word, game_state, game_status, created_at)
		 VALUES (?,?,?,?,?,?)`),
		r.Code, r.HostID, r.TargetWord, string(stateJSON), string(r.Game.Status), fmtTime(r.CreatedAt))
	if err != nil {
		// Portable duplicate detection: if the code is live, it was a
		// uniqueness violation regardless of driver.
		var exists int
		if qerr := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM rooms WHERE code=?`), r.Code).Scan(&exists); qerr == nil {
			return ErrCodeTaken
		}
		return fmt.Errorf("insert room: %w", err)
	}

	for _, p := range r.Players {
		if err := insertPlayer(ctx, tx, s, r.Code, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertPlayer(ctx context.Context, tx *sql.Tx, s *SQLStore, code string, p room.Player) error {
	last := p.LastActive
	if last.IsZero() {
		last = time.Now()
	}
	_, err := tx.ExecContext(ctx, s.q(
		`INSERT INTO players (room_code, id, nickname, guesses, words_guessed, status, ready, last_active, current_guess)
		 VALUES (?,?,?,?,?,?,FALSE,?,?)`),
		code, p.ID, p.Nickname, p.Guesses, p.WordsGuessed, string(p.Status), fmtTime(last), p.CurrentGuess)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (s *SQLStore) GetRoom(ctx context.Context, code string) (*room.Room, error) {
	var (
		r         room.Room
		stateJSON string
		status    string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT code, host_id, target_word, game_state, game_status, created_at FROM rooms WHERE code=?`),
		code).Scan(&r.Code, &r.HostID, &r.TargetWord, &stateJSON, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select room: %w", err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &r.Game); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	if r.Game.Guesses == nil {
		r.Game.Guesses = []game.ScoredGuess{}
	}
	if r.Game.LetterStates == nil {
		r.Game.LetterStates = map[string]game.Verdict{}
	}
	r.CreatedAt = parseTime(createdAt)
	r.ReadyPlayers = map[string]struct{}{}

	players, ready, err := s.loadPlayers(ctx, code)
	if err != nil {
		return nil, err
	}
	r.Players = players
	r.ReadyPlayers = ready
	return &r, nil
}

func (s *SQLStore) loadPlayers(ctx context.Context, code string) ([]room.Player, map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT id, nickname, guesses, words_guessed, status, ready, last_active, current_guess
		 FROM players WHERE room_code=? ORDER BY last_active ASC, id ASC`), code)
	if err != nil {
		return nil, nil, fmt.Errorf("select players: %w", err)
	}
	defer rows.Close()

	players := []room.Player{}
	ready := map[string]struct{}{}
	for rows.Next() {
		var (
			p     room.Player
			st    string
			isRdy bool
			last  string
		)
		if err := rows.Scan(&p.ID, &p.Nickname, &p.Guesses, &p.WordsGuessed, &st, &isRdy, &last, &p.CurrentGuess); err != nil {
			return nil, nil, fmt.Errorf("scan player: %w", err)
		}
		p.Status = game.Status(st)
		p.LastActive = parseTime(last)
		players = append(players, p)
		if isRdy {
			ready[p.ID] = struct{}{}
		}
	}
	return players, ready, rows.Err()
}

func (s *SQLStore) UpdateRoom(ctx context.Context, code string, upd RoomUpdate) error {
	sets := []string{}
	args := []any{}
	if upd.TargetWord != nil {
		sets = append(sets, "target_word=?")
		args = append(args, *upd.TargetWord)
	}
	if upd.GameState != nil {
		stateJSON, err := json.Marshal(upd.GameState)
		if err != nil {
			return fmt.Errorf("marshal game state: %w", err)
		}
		sets = append(sets, "game_state=?", "game_status=?")
		args = append(args, string(stateJSON), string(upd.GameState.Status))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM rooms WHERE code=?`), code).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return fmt.Errorf("select room: %w", err)
	}

	if len(sets) > 0 {
		args = append(args, code)
		if _, err := tx.ExecContext(ctx, s.q(
			`UPDATE rooms SET `+strings.Join(sets, ", ")+` WHERE code=?`), args...); err != nil {
			return fmt.Errorf("update room: %w", err)
		}
	}
	if upd.ClearReady {
		if _, err := tx.ExecContext(ctx, s.q(
			`UPDATE players SET ready=FALSE WHERE room_code=?`), code); err != nil {
			return fmt.Errorf("clear ready: %w", err)
		}
	}
	return tx.Commit()
}

// ------------------------------ players ------------------------------------

func (s *SQLStore) AddOrTouchPlayer(ctx context.Context, code string, p room.Player) error {
	last := p.LastActive
	if last.IsZero() {
		last = time.Now()
	}
	// Upsert keyed on (room_code, id): a re-join only refreshes last_active.
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO players (room_code, id, nickname, guesses, words_guessed, status, ready, last_active, current_guess)
		 VALUES (?,?,?,?,?,?,FALSE,?,?)
		 ON CONFLICT (room_code, id) DO UPDATE SET last_active=excluded.last_active`),
		code, p.ID, p.Nickname, p.Guesses, p.WordsGuessed, string(p.Status), fmtTime(last), p.CurrentGuess)
	if err != nil {
		// Room row gone (foreign key): a join racing an eviction fails
		// cleanly instead of landing in a vanishing room.
		var exists int
		if qerr := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM rooms WHERE code=?`), code).Scan(&exists); errors.Is(qerr, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdatePlayer(ctx context.Context, code, playerID string, upd PlayerUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// The guarded increment runs first, against the status the round actually
	// finished from: repeated terminal updates cannot double-count.
	if upd.FinishRound {
		if _, err := tx.ExecContext(ctx, s.q(
			`UPDATE players SET words_guessed = words_guessed + 1
			 WHERE room_code=? AND id=? AND status='playing'`), code, playerID); err != nil {
			return fmt.Errorf("bump words guessed: %w", err)
		}
	}

	sets := []string{"last_active=?"}
	args := []any{fmtTime(time.Now())}
	if upd.Guesses != nil {
		sets = append(sets, "guesses=?")
		args = append(args, *upd.Guesses)
	}
	if upd.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, string(*upd.Status))
	}
	if upd.CurrentGuess != nil {
		sets = append(sets, "current_guess=?")
		args = append(args, *upd.CurrentGuess)
	}
	args = append(args, code, playerID)

	res, err := tx.ExecContext(ctx, s.q(
		`UPDATE players SET `+strings.Join(sets, ", ")+` WHERE room_code=? AND id=?`), args...)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *SQLStore) RemovePlayer(ctx context.Context, code, playerID string) error {
	// Idempotent: deleting nothing is fine. Readiness lives on the row, so it
	// goes with it.
	_, err := s.db.ExecContext(ctx, s.q(
		`DELETE FROM players WHERE room_code=? AND id=?`), code, playerID)
	if err != nil {
		return fmt.Errorf("remove player: %w", err)
	}
	return nil
}

func (s *SQLStore) SetReady(ctx context.Context, code, playerID string, ready bool) error {
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE players SET ready=? WHERE room_code=? AND id=?`), ready, code, playerID)
	if err != nil {
		return fmt.Errorf("set ready: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 && ready {
		// Marking an absent player ready would break the subset invariant.
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListActivePlayers(ctx context.Context, code string) ([]room.Player, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM rooms WHERE code=?`), code).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("select room: %w", err)
	}
	players, _, err := s.loadPlayers(ctx, code)
	return players, err
}

func (s *SQLStore) ListRooms(ctx context.Context) ([]*room.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code FROM rooms`)
	if err != nil {
		return nil, fmt.Errorf("select rooms: %w", err)
	}
	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return nil, err
		}
		codes = append(codes, code)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*room.Room, 0, len(codes))
	for _, code := range codes {
		r, err := s.GetRoom(ctx, code)
		if errors.Is(err, ErrNotFound) {
			continue // deleted between the two queries
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ------------------------------ barrier ------------------------------------

func (s *SQLStore) ResetRound(ctx context.Context, code, targetWord string) (bool, error) {
	fresh := game.NewState()
	stateJSON, err := json.Marshal(fresh)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	// Check-and-fire as one statement: the round must be over, the room must
	// have players, and no player may be unready. A concurrent fire flips
	// game_status to 'playing' first and falsifies this predicate, so the
	// barrier cannot fire twice for one round.
	res, err := tx.ExecContext(ctx, s.q(
		`UPDATE rooms SET target_word=?, game_state=?, game_status='playing'
		 WHERE code=?
		   AND game_status <> 'playing'
		   AND EXISTS (SELECT 1 FROM players WHERE room_code = rooms.code)
		   AND NOT EXISTS (SELECT 1 FROM players WHERE room_code = rooms.code AND ready = FALSE)`),
		targetWord, string(stateJSON), code)
	if err != nil {
		return false, fmt.Errorf("reset round: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		var exists int
		if qerr := tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM rooms WHERE code=?`), code).Scan(&exists); errors.Is(qerr, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, s.q(
		`UPDATE players SET guesses=0, status='playing', ready=FALSE WHERE room_code=?`), code); err != nil {
		return false, fmt.Errorf("reset players: %w", err)
	}
	return true, tx.Commit()
}

// ------------------------------ eviction -----------------------------------

func (s *SQLStore) EvictInactive(ctx context.Context, code string, cutoff time.Time) (int, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM rooms WHERE code=?`), code).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	} else if err != nil {
		return 0, fmt.Errorf("select room: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.q(
		`DELETE FROM players WHERE room_code=? AND last_active < ?`), code, fmtTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("evict players: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLStore) SweepRooms(ctx context.Context, playerCutoff, roomCutoff time.Time) (SweepResult, error) {
	var out SweepResult
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.q(
		`DELETE FROM players WHERE last_active < ?`), fmtTime(playerCutoff))
	if err != nil {
		return out, fmt.Errorf("sweep players: %w", err)
	}
	n, _ := res.RowsAffected()
	out.PlayersEvicted = int(n)

	// Empty-room check and delete are one statement, so a join committed
	// after this point simply finds the room gone.
	res, err = tx.ExecContext(ctx, s.q(
		`DELETE FROM rooms WHERE created_at < ?
		   OR NOT EXISTS (SELECT 1 FROM players WHERE room_code = rooms.code)`), fmtTime(roomCutoff))
	if err != nil {
		return out, fmt.Errorf("sweep rooms: %w", err)
	}
	n, _ = res.RowsAffected()
	out.RoomsDeleted = int(n)

	return out, tx.Commit()
}
