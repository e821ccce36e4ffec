/*
Package cli provides command-line helpers used by the harbor command.

Output Formatting:

Commands that print structured results accept --output text|json|yaml:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

Errors and Exit Codes:

ExitCode maps configuration errors to 2, bind failures to 3 and anything
else to 1.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
