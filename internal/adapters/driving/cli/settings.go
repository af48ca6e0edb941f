package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// providerChoices lists the selectable providers; the last disables the capability.
var providerChoices = []domain.AIProvider{
	domain.AIProviderOllama,
	domain.AIProviderOpenAI,
	domain.AIProviderNone,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure search defaults and AI providers.

An embedding provider enables semantic search. A language model writes
answers; without one answers quote the best passages. Use subcommands to
configure a provider or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the embedding and LLM providers.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider for semantic search.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the language model that writes answers.`,
	RunE:  runSettingsLLM,
}

var settingsDisableCmd = &cobra.Command{
	Use:       "disable [embedding|llm]",
	Short:     "Turn off an AI provider",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"embedding", "llm"},
	RunE:      runSettingsDisable,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsDisableCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Chunk size: %d\n", settings.Chunking.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Printf("  Min chunk size: %d\n", settings.Chunking.MinChunkSize)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Results: %d\n", settings.Search.TopK)
	cmd.Printf("  Min similarity: %.2f\n", settings.Search.MinSimilarity)
	cmd.Printf("  Candidate multiplier: %d\n", settings.Search.CandidateMultiplier)
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Data directory: %s\n", settings.Storage.DataDir)
	cmd.Printf("  Index: %s\n", settings.Storage.IndexPath)
	cmd.Printf("  Settings file: %s\n", settingsService.Path())
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'studymate settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	if provider == domain.AIProviderNone {
		return
	}
	cmd.Printf("  Model: %s\n", model)
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("StudyMate Settings Wizard")
	cmd.Println("=========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	cmd.Println("Semantic search finds passages that share meaning but not words.")
	cmd.Println()
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: LLM Provider")
	cmd.Println("--------------------")
	cmd.Println("A language model writes answers from the passages it is given.")
	cmd.Println()
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	cmd.Println("Run 'studymate index' to rebuild with the new providers.")

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsDisable(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	switch args[0] {
	case "embedding":
		if err := settingsService.DisableEmbedding(); err != nil {
			return fmt.Errorf("failed to disable embedding: %w", err)
		}
		cmd.Println("Embedding disabled. Search is keyword only.")
	case "llm":
		if err := settingsService.DisableLLM(); err != nil {
			return fmt.Errorf("failed to disable LLM: %w", err)
		}
		cmd.Println("LLM disabled. Answers quote the best passages.")
	}
	return nil
}

type providerPrompt struct {
	provider domain.AIProvider
	model    string
	apiKey   string
}

// promptProvider asks for a provider, model and API key. A nil choice
// means the user disabled the capability.
func promptProvider(cmd *cobra.Command, reader *bufio.Reader, title string, defaults map[domain.AIProvider]string) (*providerPrompt, error) {
	cmd.Println(title)
	for i, p := range providerChoices {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providerChoices), 1)
	provider := providerChoices[idx-1]
	if provider == domain.AIProviderNone {
		return nil, nil //nolint:nilnil // nil choice disables the provider
	}

	defaultModel := defaults[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return nil, errors.New("API key is required for this provider")
		}
	}

	return &providerPrompt{provider: provider, model: model, apiKey: apiKey}, nil
}

//nolint:dupl // Mirrors configureLLMProvider for embeddings.
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	choice, err := promptProvider(cmd, reader, "Select Embedding Provider", domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}
	if choice == nil {
		if err := settingsService.DisableEmbedding(); err != nil {
			return fmt.Errorf("failed to disable embedding: %w", err)
		}
		cmd.Println("Embedding disabled.")
		cmd.Println()
		return nil
	}

	if err := settingsService.SetEmbeddingProvider(choice.provider, choice.model, choice.apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", choice.provider.Description(), choice.model)
	return nil
}

//nolint:dupl // Mirrors configureEmbeddingProvider for the LLM.
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	choice, err := promptProvider(cmd, reader, "Select LLM Provider", domain.DefaultLLMModels())
	if err != nil {
		return err
	}
	if choice == nil {
		if err := settingsService.DisableLLM(); err != nil {
			return fmt.Errorf("failed to disable LLM: %w", err)
		}
		cmd.Println("LLM disabled.")
		cmd.Println()
		return nil
	}

	if err := settingsService.SetLLMProvider(choice.provider, choice.model, choice.apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", choice.provider.Description(), choice.model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, and a plain
// line otherwise.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
