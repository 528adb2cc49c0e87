package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- OUTCOME MAP (one per simulated scenario; points at its current version)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS outcome_map SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON outcome_map TYPE string;
    DEFINE FIELD IF NOT EXISTS seed_context ON outcome_map TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS current_version ON outcome_map TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS status ON outcome_map TYPE string DEFAULT "idle";
    DEFINE FIELD IF NOT EXISTS last_error ON outcome_map TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS updated_at ON outcome_map TYPE datetime DEFAULT time::now();

    -- ==========================================================================
    -- SIMULATION TRANSITIONS (append-only extract rows, ordered by seq)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS sim_transition SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS map_id ON sim_transition TYPE string;
    DEFINE FIELD IF NOT EXISTS seq ON sim_transition TYPE int;
    DEFINE FIELD IF NOT EXISTS from_label ON sim_transition TYPE string;
    DEFINE FIELD IF NOT EXISTS to_label ON sim_transition TYPE string;
    DEFINE FIELD IF NOT EXISTS observed_frequency ON sim_transition TYPE float;
    DEFINE FIELD IF NOT EXISTS occurrences ON sim_transition TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS trigger ON sim_transition TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS factors ON sim_transition TYPE array<object> FLEXIBLE DEFAULT [];
    DEFINE FIELD IF NOT EXISTS created ON sim_transition TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS sim_transition_map_seq ON sim_transition FIELDS map_id, seq UNIQUE;

    -- ==========================================================================
    -- TREE VERSIONS (immutable published generation results)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS tree_version SCHEMALESS;
    DEFINE INDEX IF NOT EXISTS tree_version_map_version ON tree_version FIELDS map_id, version UNIQUE;

    -- ==========================================================================
    -- GENERATION REQUESTS (queue consumed by the worker)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS generation_request SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS map_id ON generation_request TYPE string;
    DEFINE FIELD IF NOT EXISTS request ON generation_request TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS status ON generation_request TYPE string DEFAULT "pending";
    DEFINE FIELD IF NOT EXISTS error ON generation_request TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS version ON generation_request TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS created_at ON generation_request TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS completed_at ON generation_request TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS generation_request_status ON generation_request FIELDS status, created_at;
`
