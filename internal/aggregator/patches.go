package aggregator

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/gitagg/internal/execshell"
)

const (
	gitAmSubcommandConstant           = "am"
	curlSilentFlagConstant            = "-s"
	curlFailFlagConstant              = "--fail"
	curlFollowRedirectsFlagConstant   = "-L"
	patchReadFailureTemplateConstant  = "failed to read patch %s: %w"
	patchListFailureTemplateConstant  = "failed to list patches in %s: %w"
	patchFetchFailureTemplateConstant = "failed to download patch %s: %w"
	patchApplyFailureTemplateConstant = "failed to apply patch %s: %w"
	applyingPatchMessageConstant      = "Applying patch"
	logFieldPatchConstant             = "patch"
)

type patchContent struct {
	source  string
	content []byte
}

// applyPatches pipes every configured patch into git am, in configuration order.
func (engine *Engine) applyPatches(executionContext context.Context) error {
	for _, source := range engine.descriptor.Patches {
		patches, collectError := engine.collectPatches(executionContext, source)
		if collectError != nil {
			return collectError
		}
		for _, patch := range patches {
			if applyError := engine.applyPatch(executionContext, patch); applyError != nil {
				return applyError
			}
		}
	}
	return nil
}

// collectPatches expands a source into patch contents.
// Local files are read directly, local directories contribute their regular files in lexical order,
// and anything else is downloaded with curl.
func (engine *Engine) collectPatches(executionContext context.Context, source string) ([]patchContent, error) {
	sourceInfo, statError := engine.fileSystem.Stat(source)
	if statError != nil {
		downloadResult, downloadError := engine.executor.ExecuteCurl(executionContext, execshell.CommandDetails{
			Arguments: []string{curlSilentFlagConstant, curlFailFlagConstant, curlFollowRedirectsFlagConstant, source},
		})
		if downloadError != nil {
			return nil, fmt.Errorf(patchFetchFailureTemplateConstant, source, downloadError)
		}
		return []patchContent{{source: source, content: []byte(downloadResult.StandardOutput)}}, nil
	}

	if !sourceInfo.IsDir() {
		content, readError := engine.fileSystem.ReadFile(source)
		if readError != nil {
			return nil, fmt.Errorf(patchReadFailureTemplateConstant, source, readError)
		}
		return []patchContent{{source: source, content: content}}, nil
	}

	entries, listError := engine.fileSystem.ReadDir(source)
	if listError != nil {
		return nil, fmt.Errorf(patchListFailureTemplateConstant, source, listError)
	}
	patches := make([]patchContent, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		patchPath := filepath.Join(source, entry.Name())
		content, readError := engine.fileSystem.ReadFile(patchPath)
		if readError != nil {
			return nil, fmt.Errorf(patchReadFailureTemplateConstant, patchPath, readError)
		}
		patches = append(patches, patchContent{source: patchPath, content: content})
	}
	return patches, nil
}

func (engine *Engine) applyPatch(executionContext context.Context, patch patchContent) error {
	amArguments := []string{gitAmSubcommandConstant}
	if engine.quietCommands {
		amArguments = append(amArguments, gitQuietFlagConstant)
	}
	engine.logger.Info(applyingPatchMessageConstant, zap.String(logFieldPatchConstant, patch.source))

	_, applyError := engine.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            amArguments,
		WorkingDirectory:     engine.descriptor.WorkingDirectory,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentConstant: gitTerminalPromptDisabledValueConstant},
		StandardInput:        patch.content,
	})
	if applyError != nil {
		return fmt.Errorf(patchApplyFailureTemplateConstant, patch.source, applyError)
	}
	return nil
}
