package lang

import (
	"regexp"
	"strconv"
	"strings"

	"qdebugger/internal/assertion"
)

// commentAssertRegex hoists the comment-form assertion syntax this dialect
// allows ("// ASSERT: assert-sup q[0];") into first-class code before
// comment stripping would otherwise blank it out.
var commentAssertRegex = regexp.MustCompile(`(?m)//\s*ASSERT:\s*(.+)$`)

// Preprocess runs the full six-step pipeline -- comment stripping, block
// extraction, gate-name discovery, instruction emission with target
// validation, data-dependency linking, and call linking -- and returns the
// frozen Program. On malformed input it
// returns a *ParsingError.
func Preprocess(source string) (*Program, error) {
	hoisted := commentAssertRegex.ReplaceAllString(source, "$1")

	registers := map[string]int{}
	var regOrder []RegisterDecl
	var cregOrder []RegisterDecl

	var processed string
	instructions, functions, err := preprocessCode(hoisted, 0, 0, nil, registers, nil, &processed)
	if err != nil {
		return nil, err
	}

	// Re-walk instructions in order to capture qreg/creg declaration order,
	// since the map above does not preserve insertion order.
	for i := range instructions {
		code := strings.TrimSpace(instructions[i].Code)
		if !isVariableDeclaration(code) {
			continue
		}
		name, size, isQuantum, ok := parseDeclaration(code)
		if !ok {
			continue
		}
		if isQuantum {
			regOrder = append(regOrder, RegisterDecl{Name: name, Size: size})
		} else {
			cregOrder = append(cregOrder, RegisterDecl{Name: name, Size: size})
		}
	}

	funcDefs := make(map[string]FunctionDefinition, len(functions))
	for _, f := range functions {
		funcDefs[f.Name] = f
	}

	return &Program{
		Source:             source,
		ProcessedSource:    processed,
		Instructions:       instructions,
		QuantumRegisters:   regOrder,
		ClassicalRegisters: cregOrder,
		Functions:          funcDefs,
	}, nil
}

func parseDeclaration(trimmedLine string) (name string, size int, isQuantum bool, ok bool) {
	isQuantum = strings.HasPrefix(trimmedLine, "qreg ")
	decl := removeWhitespace(strings.ReplaceAll(strings.ReplaceAll(trimmedLine, "creg", ""), "qreg", ""))
	open := strings.IndexByte(decl, '[')
	closeIdx := strings.IndexByte(decl, ']')
	if open == -1 || closeIdx == -1 || closeIdx < open {
		return "", 0, false, false
	}
	name = decl[:open]
	sizeText := decl[open+1 : closeIdx]
	if name == "" || !isDigits(sizeText) {
		return "", 0, false, false
	}
	n, err := strconv.Atoi(sizeText)
	if err != nil {
		return "", 0, false, false
	}
	return name, n, isQuantum, true
}

// preprocessCode is the recursive core of the pipeline. startIndex/codeOffset
// let gate-body recursion continue the flat instruction index and the
// original-source offset mapping across the recursion boundary;
// allFunctionNames carries
// names discovered by outer scopes into the recursive call so forward
// references to sibling gates resolve; definedRegisters accumulates across
// recursion since register declarations are program-global; shadowedNames
// lists the enclosing gate definition's formal parameters, which target
// validation must treat as opaque.
func preprocessCode(
	code string,
	startIndex int,
	codeOffset int,
	allFunctionNames []string,
	definedRegisters map[string]int,
	shadowedNames []string,
	processedOut *string,
) ([]Instruction, []FunctionDefinition, error) {
	blocks := map[string]string{}
	functionFirstLine := map[string]int{}
	functionDefinitions := map[string]FunctionDefinition{}
	variableUsages := map[int][]string{}

	processed := removeComments(code)
	if processedOut != nil {
		*processedOut = processed
	}
	blocksRemoved := sweepBlocks(processed, blocks)

	functionNames := sweepFunctionNames(blocksRemoved)
	functionNames = append(functionNames, allFunctionNames...)

	var instructions []Instruction
	var allFuncDefs []FunctionDefinition

	pos := 0
	i := startIndex
	blocksOffset := codeOffset

	for {
		end := strings.IndexByte(blocksRemoved[pos:], ';')
		if end == -1 {
			break
		}
		end += pos

		line := blocksRemoved[pos : end+1]
		trimmedLine := strings.TrimSpace(line)
		tokens := strings.Fields(trimmedLine)
		isAssert := isAssertion(line)
		blockPos := strings.Index(line, "$__block")

		leadingOffset := strings.IndexFunc(blocksRemoved[pos:], func(r rune) bool {
			return r != ' ' && r != '\t' && r != '\r' && r != '\n'
		})
		trueStart := pos
		if leadingOffset != -1 && pos+leadingOffset < end {
			trueStart = pos + leadingOffset
		}
		trueStart += blocksOffset

		var block Block
		if blockPos != -1 {
			relEnd := strings.IndexByte(line[blockPos+1:], '$')
			endPos := blockPos + 1
			if relEnd != -1 {
				endPos = blockPos + 1 + relEnd + 1
			}
			blockName := line[blockPos:min(endPos+1, len(line))]
			blockContent := blocks[blockName]
			blocksOffset += len(blockContent) + 2 - len(blockName)
			block = Block{Valid: true, Code: blockContent}
			line = line[:blockPos] + line[min(endPos+1, len(line)):]
		}

		if block.Valid && isClassicControlledGate(line) {
			line = line + " { " + block.Code + " }"
			block = Block{}
		}

		targets := parseParameters(line)
		trueEnd := end + blocksOffset

		if isVariableDeclaration(line) {
			name, size, _, ok := parseDeclaration(trimmedLine)
			if !ok {
				return nil, nil, newParsingError(code, trueStart, invalidRegisterDetail(trimmedLine), "")
			}
			definedRegisters[name] = size
		}

		if isFunctionDefinition(line) {
			if !block.Valid {
				return nil, nil, &ParsingError{Line: 1, Column: 1, Detail: "Gate definitions require a body block"}
			}
			f := parseFunctionDefinition(line)
			functionDefinitions[f.Name] = f
			allFuncDefs = append(allFuncDefs, f)
			i++

			var subProcessed string
			braceOffset := strings.IndexByte(code[min(trueStart, len(code)):], '{')
			subStart := trueStart + 1
			if braceOffset != -1 {
				subStart = trueStart + braceOffset + 1
			}
			subInstructions, subFuncs, err := preprocessCode(
				block.Code, i, subStart, functionNames, definedRegisters, f.Parameters, &subProcessed)
			if err != nil {
				return nil, nil, err
			}
			for idx := range subInstructions {
				subInstructions[idx].InFunctionDefinition = true
			}
			allFuncDefs = append(allFuncDefs, subFuncs...)

			if len(subInstructions) > 0 {
				functionFirstLine[f.Name] = subInstructions[0].LineNumber
			}
			i += len(subInstructions)

			defInstrIndex := i - len(subInstructions) - 1
			defInstr := Instruction{
				LineNumber:            defInstrIndex,
				Code:                  line,
				Targets:               targets,
				OriginalStart:         trueStart,
				OriginalEnd:           trueEnd,
				SuccessorIndex:        i + 1,
				IsFunctionDefinition:  true,
				Block:                 block,
			}
			for _, instr := range subInstructions {
				defInstr.ChildInstructions = append(defInstr.ChildInstructions, instr.LineNumber)
			}
			instructions = append(instructions, defInstr)
			instructions = append(instructions, subInstructions...)

			closingBrace := strings.IndexByte(code[min(instructions[len(instructions)-1].OriginalEnd, len(code)):], '}')
			closingBracePos := instructions[len(instructions)-1].OriginalEnd
			if closingBrace != -1 {
				closingBracePos += closingBrace
			}
			instructions = append(instructions, Instruction{
				LineNumber:            i,
				Code:                  "RETURN",
				Targets:               targets,
				OriginalStart:         closingBracePos,
				OriginalEnd:           closingBracePos,
				SuccessorIndex:        0,
				InFunctionDefinition:  true,
			})
			i++
			pos = end + 1
			continue
		}

		isFunctionCall := false
		calledFunction := ""
		if len(tokens) > 0 {
			for _, fn := range functionNames {
				if fn == tokens[0] {
					isFunctionCall = true
					calledFunction = tokens[0]
					break
				}
			}
		}

		if isAssert {
			a, err := assertion.Parse(line, block.Code)
			if err != nil {
				return nil, nil, newParsingError(code, trueStart, err.Error(), "")
			}
			unfoldAssertionTargetRegisters(a, definedRegisters, shadowedNames)
			if err := a.Validate(); err != nil {
				return nil, nil, newParsingError(code, trueStart, err.Error(), "")
			}
			if err := validateTargets(code, trueStart, a.Targets, definedRegisters, shadowedNames, " in assertion"); err != nil {
				return nil, nil, err
			}
			instructions = append(instructions, Instruction{
				LineNumber:     i,
				Code:           line,
				Targets:        a.Targets,
				OriginalStart:  trueStart,
				OriginalEnd:    trueEnd,
				SuccessorIndex: i + 1,
				IsFunctionCall: isFunctionCall,
				CalledFunction: calledFunction,
				Block:          block,
				Assertion:      a,
			})
		} else {
			if !isVariableDeclaration(line) {
				if err := validateTargets(code, trueStart, targets, definedRegisters, shadowedNames, ""); err != nil {
					return nil, nil, err
				}
			}
			instructions = append(instructions, Instruction{
				LineNumber:     i,
				Code:           line,
				Targets:        targets,
				OriginalStart:  trueStart,
				OriginalEnd:    trueEnd,
				SuccessorIndex: i + 1,
				IsFunctionCall: isFunctionCall,
				CalledFunction: calledFunction,
				Block:          block,
			})
			variableUsages[i] = parseParameters(line)
		}

		i++
		pos = end + 1
	}

	if err := linkDataDependenciesAndCalls(code, instructions, variableUsages, functionFirstLine, functionDefinitions); err != nil {
		return nil, nil, err
	}

	return instructions, allFuncDefs, nil
}

// unfoldAssertionTargetRegisters expands whole-register assertion targets
// into per-index targets, e.g. `assert-sup q;` over a 2-qubit register
// becomes targets ["q[0]", "q[1]"].
func unfoldAssertionTargetRegisters(a *assertion.Assertion, definedRegisters map[string]int, shadowed []string) {
	found := false
	var targets []string
	for _, t := range a.Targets {
		if contains(shadowed, t) {
			targets = append(targets, t)
			continue
		}
		if size, ok := definedRegisters[t]; ok {
			for k := 0; k < size; k++ {
				targets = append(targets, t+"["+strconv.Itoa(k)+"]")
			}
			found = true
		} else {
			targets = append(targets, t)
		}
	}
	if found {
		a.SetTargets(targets)
	}
}

func contains(list []string, v string) bool {
	for _, l := range list {
		if l == v {
			return true
		}
	}
	return false
}

// validateTargets rejects out-of-range or malformed target tokens.
func validateTargets(code string, instructionStart int, targets []string, definedRegisters map[string]int, shadowed []string, context string) error {
	for _, target := range targets {
		if target == "" {
			return newParsingError(code, instructionStart, "Empty target"+context+".", "")
		}
		open := strings.IndexByte(target, '[')
		if open == -1 {
			continue
		}
		closeIdx := strings.IndexByte(target[open+1:], ']')
		if open == 0 || closeIdx == -1 || open+1+closeIdx != len(target)-1 {
			return newParsingError(code, instructionStart, invalidTargetDetail(target, context), target)
		}
		registerName := target[:open]
		indexText := target[open+1 : open+1+closeIdx]
		if !isDigits(indexText) {
			return newParsingError(code, instructionStart, invalidTargetDetail(target, context), target)
		}
		idx, err := strconv.Atoi(indexText)
		if err != nil {
			return newParsingError(code, instructionStart, invalidTargetDetail(target, context), target)
		}
		if contains(shadowed, registerName) {
			continue
		}
		size, ok := definedRegisters[registerName]
		if !ok || size <= idx {
			return newParsingError(code, instructionStart, invalidTargetDetail(target, context), target)
		}
	}
	return nil
}

func variablesEqual(a, b string) bool {
	return a == b
}

// linkDataDependenciesAndCalls performs the backward data-dependency walk
// and function-call successor/substitution wiring.
func linkDataDependenciesAndCalls(
	code string,
	instructions []Instruction,
	variableUsages map[int][]string,
	functionFirstLine map[string]int,
	functionDefinitions map[string]FunctionDefinition,
) error {
	for i := range instructions {
		instr := &instructions[i]
		vars := append([]string{}, parseParameters(instr.Code)...)
		idx := instr.LineNumber - 1

		for instr.LineNumber != 0 && len(vars) > 0 &&
			(instr.LineNumber < len(instructions) || idx > instr.LineNumber-len(instructions)) {
			usage := variableUsages[idx]
			for pos, v := range usage {
				for vi, candidate := range vars {
					if variablesEqual(candidate, v) {
						vars = append(vars[:vi], vars[vi+1:]...)
						instr.DataDependencies = append(instr.DataDependencies, DataDependency{
							DefiningInstruction: idx,
							TargetPosition:      pos,
						})
						break
					}
				}
			}
			if idx-1 == instr.LineNumber-len(instructions) || idx == 0 {
				break
			}
			idx--
		}

		if instr.IsFunctionCall {
			instr.SuccessorIndex = functionFirstLine[instr.CalledFunction]
			def, ok := functionDefinitions[instr.CalledFunction]
			if !ok {
				continue
			}
			args := parseParameters(instr.Code)
			if len(def.Parameters) != len(args) {
				return &ParsingError{Line: 1, Column: 1, Detail: "Custom gate call uses incorrect number of arguments."}
			}
			instr.CallSubstitution = make(map[string]string, len(def.Parameters))
			for j, p := range def.Parameters {
				instr.CallSubstitution[p] = args[j]
			}
		}
	}
	return nil
}
