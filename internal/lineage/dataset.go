// Package lineage resolves dbt manifest dependencies into dataset-level
// lineage and test-to-dataset associations for OpenLineage events.
package lineage

import "github.com/correlator-io/dbt-correlator/internal/artifact"

// DatasetInfo addresses a dataset by OpenLineage (namespace, name).
// Value object: equality is by value.
type DatasetInfo struct {
	Namespace string
	Name      string
}

// String returns the dataset URN in "namespace:name" form.
func (d DatasetInfo) String() string {
	return d.Namespace + ":" + d.Name
}

// BuildDatasetInfo derives the canonical dataset identifier for a node.
// Namespace is namespaceOverride when given, else "{adapter}://{database}".
// Name is "{schema}.{relation}" where relation is the first non-empty of
// alias, identifier, name. Pure: identical inputs always yield an
// identical identifier, which backend deduplication relies on.
func BuildDatasetInfo(node *artifact.Node, meta artifact.ManifestMetadata, namespaceOverride string) DatasetInfo {
	namespace := namespaceOverride
	if namespace == "" {
		adapter := meta.AdapterType
		if adapter == "" {
			adapter = "unknown"
		}
		namespace = adapter + "://" + node.Database
	}
	return DatasetInfo{
		Namespace: namespace,
		Name:      node.Schema + "." + node.RelationName(),
	}
}
