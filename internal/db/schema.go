package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- TOPIC TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS topic SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON topic TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON topic TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS default_strategy_version ON topic TYPE int DEFAULT 1;
    DEFINE FIELD IF NOT EXISTS created ON topic TYPE datetime DEFAULT time::now();

    -- ==========================================================================
    -- EPISODE TABLE (research runs)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS episode SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS topic_id ON episode TYPE string;
    DEFINE FIELD IF NOT EXISTS query ON episode TYPE string;
    DEFINE FIELD IF NOT EXISTS strategy_version ON episode TYPE int;
    DEFINE FIELD IF NOT EXISTS status ON episode TYPE string
        ASSERT $value IN ["pending", "running", "completed", "failed"];
    DEFINE FIELD IF NOT EXISTS sources_returned ON episode TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS sources_saved ON episode TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS followup_count ON episode TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS tool_usage ON episode TYPE array<object> FLEXIBLE DEFAULT [];
    DEFINE FIELD IF NOT EXISTS result_note_id ON episode TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS error_message ON episode TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON episode TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON episode TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS episode_topic ON episode FIELDS topic_id;
    DEFINE INDEX IF NOT EXISTS episode_topic_version ON episode FIELDS topic_id, strategy_version;

    -- ==========================================================================
    -- STRATEGY TABLE (immutable versioned configs)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS strategy SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS topic_id ON strategy TYPE string;
    DEFINE FIELD IF NOT EXISTS version ON strategy TYPE int;
    DEFINE FIELD IF NOT EXISTS status ON strategy TYPE string
        ASSERT $value IN ["active", "candidate", "retired"];
    DEFINE FIELD IF NOT EXISTS rollout_percentage ON strategy TYPE int DEFAULT 100
        ASSERT $value >= 0 AND $value <= 100;
    DEFINE FIELD IF NOT EXISTS parent_version ON strategy TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS config ON strategy TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created ON strategy TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS strategy_topic ON strategy FIELDS topic_id;
    -- Version numbers are never reused within a topic.
    DEFINE INDEX IF NOT EXISTS strategy_topic_version ON strategy FIELDS topic_id, version UNIQUE;

    -- ==========================================================================
    -- NOTE TABLE (episode outputs)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS note SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS topic_id ON note TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON note TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON note TYPE string;
    DEFINE FIELD IF NOT EXISTS type ON note TYPE string DEFAULT "research";
    DEFINE FIELD IF NOT EXISTS created ON note TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS note_topic ON note FIELDS topic_id;

    -- ==========================================================================
    -- EVOLUTION LOG TABLE (append-only audit trail)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS evolution_log SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS topic_id ON evolution_log TYPE string;
    DEFINE FIELD IF NOT EXISTS from_version ON evolution_log TYPE int;
    DEFINE FIELD IF NOT EXISTS to_version ON evolution_log TYPE int;
    DEFINE FIELD IF NOT EXISTS reason ON evolution_log TYPE string;
    DEFINE FIELD IF NOT EXISTS changes ON evolution_log TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created ON evolution_log TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS evolution_log_topic ON evolution_log FIELDS topic_id;
`
