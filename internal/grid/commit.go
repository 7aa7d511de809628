package grid

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/datagrid/internal/backend"
	"github.com/JonMunkholm/datagrid/internal/core"
)

// DefaultCommitConcurrency bounds parallel row updates in a batch commit.
const DefaultCommitConcurrency = 4

// RowUpdate is the merged payload for one row of a batch commit.
type RowUpdate struct {
	Row     int
	Payload core.Row
	Edits   []PendingEdit
}

// PlanCommit groups pending edits by row and merges each group into a copy
// of the row's snapshot. Nested keys such as "address.city" are applied
// by path.
func PlanCommit(buf *EditBuffer) []RowUpdate {
	var (
		updates []RowUpdate
		current *RowUpdate
	)
	for _, edit := range buf.Pending() {
		if current == nil || current.Row != edit.Row {
			updates = append(updates, RowUpdate{Row: edit.Row, Payload: edit.Original.Clone()})
			current = &updates[len(updates)-1]
			if current.Payload == nil {
				current.Payload = core.Row{}
			}
		}
		core.SetPath(current.Payload, edit.Column, edit.Value)
		current.Edits = append(current.Edits, edit)
	}
	return updates
}

// DispatchCommit sends one update per row, at most limit at a time, and
// waits for all of them. Results are in the order of updates. Rows without
// an identifier fail with core.ErrMissingID without a request.
func DispatchCommit(ctx context.Context, b backend.Backend, endpoint string, updates []RowUpdate, limit int, timeout time.Duration) ([]RowResult, []core.Row) {
	if limit <= 0 {
		limit = DefaultCommitConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	results := make([]RowResult, len(updates))
	saved := make([]core.Row, len(updates))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, u := range updates {
		id, ok := u.Payload.ID()
		results[i] = RowResult{Row: u.Row, ID: id}
		if !ok {
			results[i].Err = core.ErrMissingID
			continue
		}
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			row, err := b.Update(rctx, endpoint, u.Payload)
			if err != nil {
				results[i].Err = err
				return nil
			}
			saved[i] = row
			return nil
		})
	}
	g.Wait()

	return results, saved
}

// ApplyCommit replaces each saved row wholesale with the server's copy and
// clears its committed edits. Failed rows keep their pending edits. A row
// is only replaced if the page still shows the same record. Returns the new
// row slice and a *BatchError when any row failed.
func ApplyCommit(rows []core.Row, buf *EditBuffer, updates []RowUpdate, results []RowResult, saved []core.Row) ([]core.Row, error) {
	out := make([]core.Row, len(rows))
	copy(out, rows)

	var failed []RowResult
	for i, u := range updates {
		if results[i].Err != nil {
			failed = append(failed, results[i])
			continue
		}
		if u.Row < len(out) && sameRow(u.Payload, out[u.Row]) && saved[i] != nil {
			out[u.Row] = saved[i]
		}
		for _, edit := range u.Edits {
			buf.Resolve(edit.CellKey, edit.Value)
		}
	}

	if len(failed) > 0 {
		return out, &BatchError{Failed: failed, Total: len(updates)}
	}
	return out, nil
}
