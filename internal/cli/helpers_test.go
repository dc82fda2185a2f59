package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const (
	compPropTSV = "### MNXref Version 4.4 ###\n" +
		"#ID\tname\treference\n" +
		"MNXD1\tgeneric compartment\tmnx:MNXD1\n"

	chemPropTSV = "### MNXref Version 4.4 ###\n" +
		"#ID\tname\treference\tformula\tcharge\tmass\tInChI\tInChIKey\tSMILES\n" +
		"MNXM1\tH(+)\tmnx:MNXM1\tH\t1\t1.00794\t\t\t\n" +
		"MNXM2\tH2O|water\tchebi:15377\tH2O\t0\t18.01\tInChI=1S/H2O/h1H2\tXLYOFNOQVPJJNP-UHFFFAOYSA-N\tO\n" +
		"MNXM3\tO2\tmnx:MNXM3\tO2\t0\t31.99\t\t\t\n"

	chemXrefTSV = "### MNXref Version 4.4 ###\n" +
		"#source\tID\tdescription\n" +
		"chebi:29375\tMNXM2\twater\n"

	reacPropTSV = "### MNXref Version 4.4 ###\n" +
		"#ID\tmnx_equation\treference\tclassifs\tis_balanced\tis_transport\n" +
		"MNXR1\t2 MNXM1@MNXD1 + 1 MNXM3@MNXD1 = 1 MNXM2@MNXD1\tmnx:MNXR1\t1.1.1.1\tB\t\n"
)

// writeRelease writes a small MNXref 4.4 release into a fresh directory.
// overrides replace or add files by name.
func writeRelease(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"comp_prop.tsv": compPropTSV,
		"chem_prop.tsv": chemPropTSV,
		"chem_xref.tsv": chemXrefTSV,
		"reac_prop.tsv": reacPropTSV,
	}
	for name, content := range overrides {
		files[name] = content
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// unsetEnv removes name for the duration of the test.
func unsetEnv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	require.NoError(t, os.Unsetenv(name))
}

// resetFlags restores every flag of cmd and its ancestors to its default so
// package-level commands can be executed repeatedly.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	for c := cmd; c != nil; c = c.Parent() {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	}
}

// execute runs the root command with args in an empty working directory and
// returns stdout and the command error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("MNXNORM_NON_INTERACTIVE", "1")
	for _, name := range []string{ConnectionStringEnv, "DATABASE_URL", "PGHOST", "PGPORT", "PGDATABASE", "PGUSER", "PGPASSWORD"} {
		unsetEnv(t, name)
	}

	if sub, _, err := rootCmd.Find(args); err == nil {
		resetFlags(sub)
	}
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}
