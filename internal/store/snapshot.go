// Package store persists concordances: xz-compressed JSON snapshots for
// pipeline hand-off and a SQLite archive for queryable batch storage.
package store

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/concordkit/concord/core/concordance"
	cerrors "github.com/concordkit/concord/core/errors"
)

// SnapshotExt is the conventional snapshot file extension.
const SnapshotExt = ".cnc.xz"

const snapshotVersion = 1

// snapshotEnvelope wraps a concordance with integrity metadata.
type snapshotEnvelope struct {
	Version     int                      `json:"version"`
	SavedAt     time.Time                `json:"saved_at"`
	ContentHash string                   `json:"content_hash"`
	Concordance *concordance.Concordance `json:"concordance"`
}

// WriteSnapshot writes a concordance as xz-compressed JSON with its content
// hash in the envelope.
func WriteSnapshot(w io.Writer, cnc *concordance.Concordance) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return cerrors.Wrap(err, "creating xz writer")
	}
	env := snapshotEnvelope{
		Version:     snapshotVersion,
		SavedAt:     time.Now().UTC(),
		ContentHash: cnc.ContentHash(),
		Concordance: cnc,
	}
	if err := json.NewEncoder(xw).Encode(&env); err != nil {
		return cerrors.Wrap(err, "encoding snapshot")
	}
	return cerrors.Wrap(xw.Close(), "closing xz stream")
}

// ReadSnapshot reads a snapshot and verifies the recorded content hash
// against the decoded concordance.
func ReadSnapshot(r io.Reader) (*concordance.Concordance, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, &cerrors.ParseError{Format: "snapshot", Message: "not an xz stream", Err: err}
	}
	var env snapshotEnvelope
	if err := json.NewDecoder(xr).Decode(&env); err != nil {
		return nil, &cerrors.ParseError{Format: "snapshot", Message: "decoding envelope", Err: err}
	}
	if env.Concordance == nil {
		return nil, cerrors.NewParse("snapshot", "", "envelope has no concordance")
	}
	if got := env.Concordance.ContentHash(); got != env.ContentHash {
		return nil, cerrors.NewParse("snapshot", "",
			"content hash mismatch, snapshot is corrupt or was edited")
	}
	return env.Concordance, nil
}

// SaveSnapshot writes a snapshot file.
func SaveSnapshot(path string, cnc *concordance.Concordance) error {
	f, err := os.Create(path)
	if err != nil {
		return cerrors.Wrapf(err, "creating %s", path)
	}
	if err := WriteSnapshot(f, cnc); err != nil {
		f.Close()
		return err
	}
	return cerrors.Wrapf(f.Close(), "closing %s", path)
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) (*concordance.Concordance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
