package plan

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSource reads plans from the plan store's SQLite database. The store
// is owned by another process; this side only ever issues SELECTs.
type SQLiteSource struct {
	db       *sql.DB
	maxPlans int
	logger   *log.Logger
}

// OpenSQLite opens the plans database read-only. maxPlans caps how many
// plans a tick will track, starred plans first.
func OpenSQLite(path string, maxPlans int, logger *log.Logger) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open plans db: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SQLiteSource{db: db, maxPlans: maxPlans, logger: logger}, nil
}

func (s *SQLiteSource) Close() error { return s.db.Close() }

// ActivePlans returns the latest version of each symbol's active plan,
// starred first, capped at maxPlans. Plans whose body yields no entry
// price are skipped with a warning; one unparsable plan never hides the rest.
func (s *SQLiteSource) ActivePlans(ctx context.Context) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t1.id, t1.stock_symbol, t1.stock_name, t1.plan_content,
		       t1.is_starred, COALESCE(t1.tracking_status, 'active')
		FROM trading_plans t1
		INNER JOIN (
			SELECT stock_symbol, MAX(version) AS max_version
			FROM trading_plans
			WHERE status = 'active'
			GROUP BY stock_symbol
		) t2 ON t1.stock_symbol = t2.stock_symbol AND t1.version = t2.max_version
		ORDER BY t1.is_starred DESC, t1.created_at DESC
		LIMIT ?`, s.maxPlans)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		var (
			p        Plan
			content  string
			starred  int
			tracking string
		)
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Name, &content, &starred, &tracking); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}

		levels, err := ParseLevels(content)
		if err != nil {
			s.logger.Printf("plan %d (%s): %v, skipping", p.ID, p.Symbol, err)
			continue
		}

		p.BuyPrice = levels.BuyPrice
		p.StopLoss = levels.StopLoss
		p.Targets = levels.Targets
		p.Starred = starred != 0
		p.Status = Status(tracking)
		out = append(out, p)
	}
	return out, rows.Err()
}
