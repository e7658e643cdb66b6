package postgresql

// migrations returns the ordered schema migrations for the qualification store.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflow_runs (
				id UUID PRIMARY KEY,
				supplier_id TEXT NOT NULL,
				workflow_type TEXT NOT NULL,
				status TEXT NOT NULL,
				outcome TEXT,
				notes JSONB NOT NULL DEFAULT '[]',
				triggered_by TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				ended_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_workflow_runs_supplier ON workflow_runs (supplier_id);
			CREATE INDEX IF NOT EXISTS idx_workflow_runs_status ON workflow_runs (status);

			CREATE TABLE IF NOT EXISTS workflow_step_results (
				id UUID PRIMARY KEY,
				run_id UUID NOT NULL REFERENCES workflow_runs (id),
				step_key TEXT NOT NULL,
				display_name TEXT NOT NULL,
				status TEXT NOT NULL,
				issues JSONB NOT NULL DEFAULT '[]',
				details JSONB,
				score DOUBLE PRECISION,
				order_index INTEGER NOT NULL CHECK (order_index > 0),
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				ended_at TIMESTAMP WITH TIME ZONE,
				UNIQUE (run_id, order_index)
			);

			CREATE INDEX IF NOT EXISTS idx_step_results_run ON workflow_step_results (run_id);

			CREATE TABLE IF NOT EXISTS document_verification (
				id UUID PRIMARY KEY,
				run_id UUID NOT NULL REFERENCES workflow_runs (id),
				step_key TEXT NOT NULL,
				document_type TEXT NOT NULL,
				overall_result TEXT NOT NULL,
				confidence_score INTEGER NOT NULL CHECK (confidence_score BETWEEN 0 AND 100),
				fields JSONB NOT NULL DEFAULT '[]',
				discrepancies JSONB NOT NULL DEFAULT '[]',
				analysis TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_document_verification_run ON document_verification (run_id);
		`,
	}
}
