package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create execution_states table: one row per operator session
			CREATE TABLE execution_states (
				session_id VARCHAR(255) PRIMARY KEY,
				id UUID NOT NULL,
				pipeline_id VARCHAR(255) NOT NULL,
				active_step_id VARCHAR(255) NOT NULL,
				step_index INT NOT NULL DEFAULT 0,
				context JSONB NOT NULL DEFAULT '{}',
				history JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_execution_states_pipeline_id ON execution_states(pipeline_id);
			CREATE INDEX idx_execution_states_updated_at ON execution_states(updated_at);
		`,
	}
}
