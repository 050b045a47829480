/*
Package cli provides helpers shared by the docgate commands.

Output Formatting:

Command results are rendered as text, JSON or CSV:

	format, err := cli.ParseOutputFormat(flags.output)
	if err != nil {
		return err
	}
	return cli.WriteEntries(cmd.Context(), os.Stdout, format, entries)

Errors:

ConfigError and CommandError carry enough context for a one-line message on
stderr, and ExitCode maps them to the process exit status.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
