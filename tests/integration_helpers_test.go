package tests

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type integrationCommandOptions struct {
	EnvironmentOverrides map[string]string
}

func executeIntegrationCommand(testInstance *testing.T, repositoryRoot string, options integrationCommandOptions, timeout time.Duration, arguments []string) (string, error) {
	testInstance.Helper()

	executionContext, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	command := exec.CommandContext(executionContext, "go", arguments...)
	command.Dir = repositoryRoot

	environment := append([]string{}, os.Environ()...)
	for overrideName, overrideValue := range options.EnvironmentOverrides {
		environment = append(environment, fmt.Sprintf("%s=%s", overrideName, overrideValue))
	}
	command.Env = environment

	outputBytes, runError := command.CombinedOutput()
	return string(outputBytes), runError
}

func runIntegrationCommand(testInstance *testing.T, repositoryRoot string, options integrationCommandOptions, timeout time.Duration, arguments []string) string {
	testInstance.Helper()

	outputText, runError := executeIntegrationCommand(testInstance, repositoryRoot, options, timeout, arguments)
	if runError != nil {
		testInstance.Fatalf("command failed: %v\n%s", runError, outputText)
	}
	return outputText
}

func runIntegrationCommandExpectingFailure(testInstance *testing.T, repositoryRoot string, options integrationCommandOptions, timeout time.Duration, arguments []string) string {
	testInstance.Helper()

	outputText, runError := executeIntegrationCommand(testInstance, repositoryRoot, options, timeout, arguments)
	if runError == nil {
		testInstance.Fatalf("command succeeded unexpectedly:\n%s", outputText)
	}
	return outputText
}

func filterStructuredOutput(rawOutput string) string {
	lines := strings.Split(rawOutput, "\n")
	var filtered []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "{") {
			continue
		}
		filtered = append(filtered, line)
	}
	if len(filtered) == 0 {
		return ""
	}
	return strings.Join(filtered, "\n") + "\n"
}

func runGitCommand(testInstance *testing.T, workingDirectory string, arguments ...string) {
	testInstance.Helper()

	gitArguments := append([]string{"-C", workingDirectory}, arguments...)
	command := exec.Command("git", gitArguments...)
	command.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	outputBytes, runError := command.CombinedOutput()
	if runError != nil {
		testInstance.Fatalf("git %v failed: %v\n%s", arguments, runError, string(outputBytes))
	}
}

func gitCommandOutput(testInstance *testing.T, workingDirectory string, arguments ...string) string {
	testInstance.Helper()

	gitArguments := append([]string{"-C", workingDirectory}, arguments...)
	command := exec.Command("git", gitArguments...)
	command.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	outputBytes, runError := command.CombinedOutput()
	if runError != nil {
		testInstance.Fatalf("git %v failed: %v\n%s", arguments, runError, string(outputBytes))
	}
	return strings.TrimSpace(string(outputBytes))
}

func initializeRepositoryWithUpstream(testInstance *testing.T, repositoriesDirectory string, remotesDirectory string, repositoryName string) (string, string) {
	testInstance.Helper()

	repositoryPath := filepath.Join(repositoriesDirectory, repositoryName)
	remotePath := filepath.Join(remotesDirectory, repositoryName+".git")

	initializeBareCommand := exec.Command("git", "init", "--bare", "--initial-branch=main", remotePath)
	initializeBareCommand.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if outputBytes, runError := initializeBareCommand.CombinedOutput(); runError != nil {
		testInstance.Fatalf("git init --bare failed: %v\n%s", runError, string(outputBytes))
	}

	initializeCommand := exec.Command("git", "init", "--initial-branch=main", repositoryPath)
	initializeCommand.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if outputBytes, runError := initializeCommand.CombinedOutput(); runError != nil {
		testInstance.Fatalf("git init failed: %v\n%s", runError, string(outputBytes))
	}

	configureRepositoryIdentity(testInstance, repositoryPath)
	writeRepositoryFile(testInstance, repositoryPath, "README.txt", "initial\n")
	commitAllChanges(testInstance, repositoryPath, "initial commit")
	runGitCommand(testInstance, repositoryPath, "remote", "add", "origin", remotePath)
	runGitCommand(testInstance, repositoryPath, "push", "--quiet", "--set-upstream", "origin", "main")

	return repositoryPath, remotePath
}

func cloneRepositoryWithUpstream(testInstance *testing.T, remotePath string, clonePath string) {
	testInstance.Helper()

	cloneCommand := exec.Command("git", "clone", "--quiet", remotePath, clonePath)
	cloneCommand.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if outputBytes, runError := cloneCommand.CombinedOutput(); runError != nil {
		testInstance.Fatalf("git clone failed: %v\n%s", runError, string(outputBytes))
	}
	configureRepositoryIdentity(testInstance, clonePath)
}

func configureRepositoryIdentity(testInstance *testing.T, repositoryPath string) {
	testInstance.Helper()

	runGitCommand(testInstance, repositoryPath, "config", "user.name", "Integration Test")
	runGitCommand(testInstance, repositoryPath, "config", "user.email", "integration@example.com")
	runGitCommand(testInstance, repositoryPath, "config", "commit.gpgsign", "false")
}

func writeRepositoryFile(testInstance *testing.T, repositoryPath string, fileName string, content string) {
	testInstance.Helper()

	writeError := os.WriteFile(filepath.Join(repositoryPath, fileName), []byte(content), 0o644)
	if writeError != nil {
		testInstance.Fatalf("write %s failed: %v", fileName, writeError)
	}
}

func commitAllChanges(testInstance *testing.T, repositoryPath string, message string) {
	testInstance.Helper()

	runGitCommand(testInstance, repositoryPath, "add", "--all")
	runGitCommand(testInstance, repositoryPath, "commit", "--quiet", "--message", message)
}
