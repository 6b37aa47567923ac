// Package config provides the fixed paths and filenames of the lead scoring
// data pipeline, plus the runtime settings derived from them
package config

// Pipeline locations. These are the values the pipeline DAG was deployed
// with and must stay byte-for-byte identical.
const (
	// DBPath is the directory holding the pipeline databases
	DBPath = "/home/airflow/dags/Lead_scoring_data_pipeline/"

	// DBFileName is the SQLite database written by the data pipeline utilities
	DBFileName = "utils_output.db"

	// UnitTestDBFileName is the SQLite database used by the pipeline unit tests
	UnitTestDBFileName = "unit_test_cases.db"

	// DataDirectory holds the pipeline input files
	DataDirectory = "/home/airflow/dags/Lead_scoring_data_pipeline/data/"

	// InteractionMapping is the CSV mapping raw interaction types to interaction groups
	InteractionMapping = "interaction_mapping.csv"
)

// CLI flag help texts and loader tuning.
const (
	DatabaseFileDescription       = "Path to SQLite database file (default: DB path + DB file name)"
	InteractionMappingDescription = "Path to interaction mapping CSV (default: data directory + interaction mapping file)"
	ConfigFileDescription         = "Optional YAML settings file"

	// MappingTableName is the table the interaction mapping is loaded into
	MappingTableName = "interaction_mapping"

	SchemaDetectionSampleSize = 1000
	TypeInferenceThreshold    = 0.8 // share of sampled values that must agree on a type
)

// DatabaseFile returns the full path of the pipeline database
func DatabaseFile() string {
	return DBPath + DBFileName
}

// UnitTestDatabaseFile returns the full path of the unit test database
func UnitTestDatabaseFile() string {
	return DBPath + UnitTestDBFileName
}

// InteractionMappingFile returns the full path of the interaction mapping CSV
func InteractionMappingFile() string {
	return DataDirectory + InteractionMapping
}

// Constants returns the configuration table keyed by its pipeline names.
// A new map is built on every call so callers cannot alter shared state.
func Constants() map[string]string {
	return map[string]string{
		"DB_PATH":                DBPath,
		"DB_FILE_NAME":           DBFileName,
		"UNIT_TEST_DB_FILE_NAME": UnitTestDBFileName,
		"DATA_DIRECTORY":         DataDirectory,
		"INTERACTION_MAPPING":    InteractionMapping,
	}
}

// ConstantNames lists the keys of Constants in declaration order
func ConstantNames() []string {
	return []string{
		"DB_PATH",
		"DB_FILE_NAME",
		"UNIT_TEST_DB_FILE_NAME",
		"DATA_DIRECTORY",
		"INTERACTION_MAPPING",
	}
}
