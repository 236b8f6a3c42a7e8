package repoconfig

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gitagg/internal/aggregator"
	pathutils "github.com/temirov/gitagg/internal/utils/path"
)

const (
	remotesKeyConstant            = "remotes"
	mergesKeyConstant             = "merges"
	targetKeyConstant             = "target"
	shellCommandAfterKeyConstant  = "shell_command_after"
	patchesKeyConstant            = "patches"
	fetchAllKeyConstant           = "fetch_all"
	defaultsKeyConstant           = "defaults"
	defaultTargetBranchConstant   = "_git_aggregated"
	mapstructureTagNameConstant   = "mapstructure"
	yamlNullTagConstant           = "!!null"
	yamlBoolTagConstant           = "!!bool"
	mergeStringPartsCountConstant = 2
)

var (
	truthyWords = map[string]bool{"true": true, "yes": true, "y": true, "on": true}
	falsyWords  = map[string]bool{"false": true, "no": true, "n": true, "off": true}
)

type fetchOptionsEntry struct {
	Depth          string `mapstructure:"depth"`
	ShallowSince   string `mapstructure:"shallow-since"`
	ShallowExclude string `mapstructure:"shallow-exclude"`
}

func (entry fetchOptionsEntry) options() aggregator.FetchOptions {
	options := aggregator.FetchOptions{}
	for key, value := range map[string]string{
		aggregator.FetchOptionDepth:          entry.Depth,
		aggregator.FetchOptionShallowSince:   entry.ShallowSince,
		aggregator.FetchOptionShallowExclude: entry.ShallowExclude,
	} {
		if len(value) > 0 {
			options[key] = value
		}
	}
	return options
}

type mergeEntry struct {
	Remote         string `mapstructure:"remote"`
	Ref            string `mapstructure:"ref"`
	Depth          string `mapstructure:"depth"`
	ShallowSince   string `mapstructure:"shallow-since"`
	ShallowExclude string `mapstructure:"shallow-exclude"`
}

func (entry mergeEntry) options() aggregator.FetchOptions {
	return fetchOptionsEntry{
		Depth:          entry.Depth,
		ShallowSince:   entry.ShallowSince,
		ShallowExclude: entry.ShallowExclude,
	}.options()
}

type documentParser struct {
	baseDirectory string
	homeExpander  *pathutils.HomeExpander
	force         bool
}

func (parser documentParser) parse(content []byte) ([]aggregator.Descriptor, error) {
	var document yaml.Node
	if unmarshalError := yaml.Unmarshal(content, &document); unmarshalError != nil {
		return nil, ConfigurationError{Message: unparsableConfigurationMessageConstant, Cause: unmarshalError}
	}

	descriptors := []aggregator.Descriptor{}
	root := resolveNode(&document)
	if root == nil || root.Kind == 0 || isNull(root) {
		return descriptors, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, ConfigurationError{Message: invalidRootMessageConstant}
	}

	declaredDirectories := map[string]struct{}{}
	for index := 0; index+1 < len(root.Content); index += 2 {
		workingDirectory := parser.homeExpander.ResolveAgainst(parser.baseDirectory, root.Content[index].Value)
		if _, duplicate := declaredDirectories[workingDirectory]; duplicate {
			return nil, ConfigurationError{Directory: workingDirectory, Message: duplicateDirectoryMessageConstant}
		}
		declaredDirectories[workingDirectory] = struct{}{}

		descriptor, descriptorError := parser.parseRepository(workingDirectory, resolveNode(root.Content[index+1]))
		if descriptorError != nil {
			return nil, descriptorError
		}
		descriptors = append(descriptors, descriptor)
	}
	return descriptors, nil
}

func (parser documentParser) parseRepository(workingDirectory string, repositoryNode *yaml.Node) (aggregator.Descriptor, error) {
	fail := func(message string) (aggregator.Descriptor, error) {
		return aggregator.Descriptor{}, ConfigurationError{Directory: workingDirectory, Message: message}
	}
	if repositoryNode == nil || repositoryNode.Kind != yaml.MappingNode {
		return fail(invalidRepositoryMessageConstant)
	}

	descriptor := aggregator.Descriptor{WorkingDirectory: workingDirectory, Force: parser.force}

	remotes, remotesMessage := parseRemotes(mappingValue(repositoryNode, remotesKeyConstant))
	if len(remotesMessage) > 0 {
		return fail(remotesMessage)
	}
	descriptor.Remotes = remotes
	declaredRemotes := make(map[string]struct{}, len(remotes))
	for _, remote := range remotes {
		declaredRemotes[remote.Name] = struct{}{}
	}

	merges, mergesMessage := parseMerges(mappingValue(repositoryNode, mergesKeyConstant), declaredRemotes)
	if len(mergesMessage) > 0 {
		return fail(mergesMessage)
	}
	descriptor.Merges = merges

	target, targetMessage := parseTarget(mappingValue(repositoryNode, targetKeyConstant), declaredRemotes)
	if len(targetMessage) > 0 {
		return fail(targetMessage)
	}
	descriptor.Target = target

	postHooks, hooksMessage := parseStringList(mappingValue(repositoryNode, shellCommandAfterKeyConstant), shellCommandAfterKeyConstant)
	if len(hooksMessage) > 0 {
		return fail(hooksMessage)
	}
	descriptor.PostHooks = postHooks

	patches, patchesMessage := parseStringList(mappingValue(repositoryNode, patchesKeyConstant), patchesKeyConstant)
	if len(patchesMessage) > 0 {
		return fail(patchesMessage)
	}
	for _, patch := range patches {
		descriptor.Patches = append(descriptor.Patches, resolveLocalPath(parser.homeExpander, parser.baseDirectory, patch))
	}

	fetchAll, fetchAllMessage := parseFetchAll(mappingValue(repositoryNode, fetchAllKeyConstant))
	if len(fetchAllMessage) > 0 {
		return fail(fetchAllMessage)
	}
	descriptor.FetchAll = fetchAll

	defaults, defaultsMessage := parseDefaults(mappingValue(repositoryNode, defaultsKeyConstant))
	if len(defaultsMessage) > 0 {
		return fail(defaultsMessage)
	}
	descriptor.Defaults = defaults

	return descriptor, nil
}

func parseRemotes(remotesNode *yaml.Node) ([]aggregator.Remote, string) {
	if remotesNode == nil {
		return nil, remotesUndefinedMessageConstant
	}
	if isNull(remotesNode) {
		return nil, remotesEmptyMessageConstant
	}
	if remotesNode.Kind != yaml.MappingNode {
		return nil, remotesNotMappingMessageConstant
	}

	remotes := []aggregator.Remote{}
	for index := 0; index+1 < len(remotesNode.Content); index += 2 {
		name := remotesNode.Content[index].Value
		urlNode := resolveNode(remotesNode.Content[index+1])
		if urlNode == nil || urlNode.Kind != yaml.ScalarNode || isNull(urlNode) || len(strings.TrimSpace(urlNode.Value)) == 0 {
			return nil, fmt.Sprintf(remoteURLMissingTemplateConstant, name)
		}
		remotes = append(remotes, aggregator.Remote{Name: name, URL: strings.TrimSpace(urlNode.Value)})
	}
	if len(remotes) == 0 {
		return nil, remotesEmptyMessageConstant
	}
	return remotes, ""
}

func parseMerges(mergesNode *yaml.Node, declaredRemotes map[string]struct{}) ([]aggregator.Merge, string) {
	if mergesNode == nil {
		return nil, mergesUndefinedMessageConstant
	}
	if isNull(mergesNode) {
		return nil, mergesEmptyMessageConstant
	}
	if mergesNode.Kind != yaml.SequenceNode {
		return nil, mergesNotSequenceMessageConstant
	}

	merges := []aggregator.Merge{}
	for _, itemNode := range mergesNode.Content {
		merge, mergeMessage := parseMerge(resolveNode(itemNode))
		if len(mergeMessage) > 0 {
			return nil, mergeMessage
		}
		if _, declared := declaredRemotes[merge.Remote]; !declared {
			return nil, fmt.Sprintf(mergeRemoteUndefinedTemplateConstant, merge.Remote)
		}
		merges = append(merges, merge)
	}
	if len(merges) == 0 {
		return nil, mergesEmptyMessageConstant
	}
	return merges, ""
}

// parseMerge accepts "remote ref" strings and {remote, ref, fetch options} mappings.
func parseMerge(itemNode *yaml.Node) (aggregator.Merge, string) {
	switch itemNode.Kind {
	case yaml.ScalarNode:
		parts := strings.Fields(itemNode.Value)
		if len(parts) != mergeStringPartsCountConstant {
			return aggregator.Merge{}, mergeFormatMessageConstant
		}
		return aggregator.Merge{Remote: parts[0], Ref: parts[1]}, ""
	case yaml.MappingNode:
		values, scalarOnly := scalarMapping(itemNode)
		if !scalarOnly {
			return aggregator.Merge{}, mergeFormatMessageConstant
		}
		var entry mergeEntry
		if decodeError := decodeScalarMapping(values, &entry); decodeError != nil {
			return aggregator.Merge{}, mergeFormatMessageConstant
		}
		if len(entry.Remote) == 0 || len(entry.Ref) == 0 {
			return aggregator.Merge{}, mergeKeysMissingMessageConstant
		}
		merge := aggregator.Merge{Remote: entry.Remote, Ref: entry.Ref}
		if options := entry.options(); len(options) > 0 {
			merge.FetchOptions = options
		}
		return merge, ""
	default:
		return aggregator.Merge{}, mergeFormatMessageConstant
	}
}

func parseTarget(targetNode *yaml.Node, declaredRemotes map[string]struct{}) (aggregator.Target, string) {
	if targetNode == nil || isNull(targetNode) {
		return aggregator.Target{Branch: defaultTargetBranchConstant}, ""
	}
	if targetNode.Kind != yaml.ScalarNode {
		return aggregator.Target{}, targetFormatMessageConstant
	}

	parts := strings.Fields(targetNode.Value)
	switch len(parts) {
	case 0:
		return aggregator.Target{Branch: defaultTargetBranchConstant}, ""
	case 1:
		return aggregator.Target{Branch: parts[0]}, ""
	case 2:
		if _, declared := declaredRemotes[parts[0]]; !declared {
			return aggregator.Target{}, fmt.Sprintf(targetRemoteUndefinedTemplateConstant, parts[0])
		}
		return aggregator.Target{Remote: parts[0], Branch: parts[1]}, ""
	default:
		return aggregator.Target{}, targetFormatMessageConstant
	}
}

// parseStringList accepts a single string or a list of strings; null and empty values yield nil.
func parseStringList(listNode *yaml.Node, key string) ([]string, string) {
	if listNode == nil || isNull(listNode) {
		return nil, ""
	}
	switch listNode.Kind {
	case yaml.ScalarNode:
		if len(listNode.Value) == 0 {
			return nil, ""
		}
		return []string{listNode.Value}, ""
	case yaml.SequenceNode:
		values := make([]string, 0, len(listNode.Content))
		for _, itemNode := range listNode.Content {
			resolvedItem := resolveNode(itemNode)
			if resolvedItem.Kind != yaml.ScalarNode {
				return nil, fmt.Sprintf(stringListMessageTemplateConstant, key)
			}
			values = append(values, resolvedItem.Value)
		}
		return values, ""
	default:
		return nil, fmt.Sprintf(stringListMessageTemplateConstant, key)
	}
}

func parseFetchAll(fetchAllNode *yaml.Node) (aggregator.FetchAll, string) {
	if fetchAllNode == nil || isNull(fetchAllNode) {
		return aggregator.FetchAll{}, ""
	}
	if fetchAllNode.Kind == yaml.ScalarNode {
		normalized := strings.ToLower(strings.TrimSpace(fetchAllNode.Value))
		switch {
		case fetchAllNode.ShortTag() == yamlBoolTagConstant || truthyWords[normalized] || falsyWords[normalized]:
			return aggregator.FetchAll{AllRemotes: truthyWords[normalized]}, ""
		case len(normalized) == 0:
			return aggregator.FetchAll{}, ""
		default:
			return aggregator.FetchAll{RemoteNames: []string{strings.TrimSpace(fetchAllNode.Value)}}, ""
		}
	}
	remoteNames, listMessage := parseStringList(fetchAllNode, fetchAllKeyConstant)
	if len(listMessage) > 0 {
		return aggregator.FetchAll{}, fetchAllFormatMessageConstant
	}
	return aggregator.FetchAll{RemoteNames: remoteNames}, ""
}

func parseDefaults(defaultsNode *yaml.Node) (aggregator.FetchOptions, string) {
	if defaultsNode == nil || isNull(defaultsNode) {
		return nil, ""
	}
	if defaultsNode.Kind != yaml.MappingNode {
		return nil, defaultsFormatMessageConstant
	}
	values, scalarOnly := scalarMapping(defaultsNode)
	if !scalarOnly {
		return nil, defaultsFormatMessageConstant
	}
	var entry fetchOptionsEntry
	if decodeError := decodeScalarMapping(values, &entry); decodeError != nil {
		return nil, defaultsFormatMessageConstant
	}
	options := entry.options()
	if len(options) == 0 {
		return nil, ""
	}
	return options, ""
}

// scalarMapping flattens a mapping of scalars, keeping the literal text of every value so 8.0 stays 8.0.
func scalarMapping(mappingNode *yaml.Node) (map[string]string, bool) {
	values := make(map[string]string, len(mappingNode.Content)/2)
	for index := 0; index+1 < len(mappingNode.Content); index += 2 {
		valueNode := resolveNode(mappingNode.Content[index+1])
		if valueNode.Kind != yaml.ScalarNode {
			return nil, false
		}
		if isNull(valueNode) {
			continue
		}
		values[mappingNode.Content[index].Value] = valueNode.Value
	}
	return values, true
}

func decodeScalarMapping(values map[string]string, target any) error {
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: mapstructureTagNameConstant,
	})
	if decoderError != nil {
		return decoderError
	}
	return decoder.Decode(values)
}

func mappingValue(mappingNode *yaml.Node, key string) *yaml.Node {
	for index := 0; index+1 < len(mappingNode.Content); index += 2 {
		if mappingNode.Content[index].Value == key {
			return resolveNode(mappingNode.Content[index+1])
		}
	}
	return nil
}

func resolveNode(node *yaml.Node) *yaml.Node {
	for node != nil && (node.Kind == yaml.DocumentNode || node.Kind == yaml.AliasNode) {
		if node.Kind == yaml.AliasNode {
			node = node.Alias
			continue
		}
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == yamlNullTagConstant
}
