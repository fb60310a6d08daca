package domain

// SourceTechnology describes one supported migration source. The analyzer and
// the transpiler name the same technology differently, so the catalog carries
// both spellings alongside the key.
type SourceTechnology struct {
	Key               string `json:"key"`
	Label             string `json:"label"`
	AnalyzerTech      string `json:"analyzer_tech"`
	TranspilerDialect string `json:"transpiler_dialect"`
}

// DefaultSourceTech is used when submit names no source technology
const DefaultSourceTech = "powercenter"

// SourceCatalog lists the supported source technologies in display order
var SourceCatalog = []SourceTechnology{
	{Key: "powercenter", Label: "Informatica PowerCenter", AnalyzerTech: "Informatica - PC", TranspilerDialect: "informatica (desktop edition)"},
	{Key: "informatica-cloud", Label: "Informatica Cloud", AnalyzerTech: "Informatica Cloud", TranspilerDialect: "informatica cloud"},
	{Key: "adf", Label: "Azure Data Factory (ADF)", AnalyzerTech: "ADF", TranspilerDialect: "synapse"},
	{Key: "datastage", Label: "IBM DataStage", AnalyzerTech: "Datastage", TranspilerDialect: "datastage"},
	{Key: "mssql", Label: "MS SQL Server", AnalyzerTech: "MS SQL Server", TranspilerDialect: "mssql"},
	{Key: "oracle", Label: "Oracle", AnalyzerTech: "Oracle", TranspilerDialect: "oracle"},
}

// LookupSource resolves a catalog key to its technology entry
func LookupSource(key string) (SourceTechnology, error) {
	for _, s := range SourceCatalog {
		if s.Key == key {
			return s, nil
		}
	}
	return SourceTechnology{}, ErrUnknownSource
}
