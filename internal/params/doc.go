// Package params parses the repeatable key=value style flags of mnxnorm:
// dump inputs (--input chem_prop=path), prefix aliases (--alias kegg=kegg.compound)
// and .env files supplying connection and S3 settings.
package params
