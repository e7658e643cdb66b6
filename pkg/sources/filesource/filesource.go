// Package filesource implements the collaborator contracts on top of a
// directory of JSON documents. It serves development and CLI use; production
// deployments plug in the ERP directory and the OCR pipeline instead.
//
//	<root>/suppliers/<supplier_id>.json
//	<root>/extractions/<supplier_id>/<doc_type>.json
//	<root>/questionnaires/<supplier_id>.json
package filesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecampo/vendiq/pkg/models"
)

// Source implements protocol.SupplierDirectory, protocol.DocumentSource and
// protocol.QuestionnaireSource from one directory tree.
type Source struct {
	root string
}

func NewSource(root string) *Source {
	return &Source{root: strings.Replace(root, "file://", "", 1)}
}

func (s *Source) SupplierByID(_ context.Context, supplierID string) (*models.Supplier, error) {
	var supplier models.Supplier

	found, err := s.load(filepath.Join(s.root, "suppliers", supplierID+".json"), &supplier)
	if err != nil || !found {
		return nil, err
	}

	return &supplier, nil
}

func (s *Source) Extraction(_ context.Context, supplierID string, docType models.DocumentType) (*models.DocumentExtraction, error) {
	var extraction models.DocumentExtraction

	path := filepath.Join(s.root, "extractions", supplierID, string(docType)+".json")

	found, err := s.load(path, &extraction)
	if err != nil || !found {
		return nil, err
	}

	return &extraction, nil
}

func (s *Source) AnswersBySupplier(_ context.Context, supplierID string) (*models.QuestionnaireAnswers, error) {
	var answers models.QuestionnaireAnswers

	found, err := s.load(filepath.Join(s.root, "questionnaires", supplierID+".json"), &answers)
	if err != nil || !found {
		return nil, err
	}

	return &answers, nil
}

// SupplierIDs lists every supplier with a record on disk, for requalification
// sweeps.
func (s *Source) SupplierIDs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "suppliers"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}

		return nil, fmt.Errorf("failed to list supplier records: %w", err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}

	return ids, nil
}

// load reads one JSON document. A missing file is not an error: the
// collaborator contracts use nil to mean "no record".
func (s *Source) load(path string, target any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return true, nil
}
