package swift

import "swiftsmith/pkg/grammar"

const (
	branchStatement       = grammar.Nonterminal("BRANCH_STATEMENT")
	ifStatement           = grammar.Nonterminal("IF_STATEMENT")
	elseClause            = grammar.Nonterminal("ELSE_CLAUSE")
	conditionList         = grammar.Nonterminal("CONDITION_LIST")
	condition             = grammar.Nonterminal("CONDITION")
	branchBlock           = grammar.Nonterminal("BRANCH_BLOCK")
	branchBlockStatements = grammar.Nonterminal("BRANCH_BLOCK_STATEMENTS")
	branchBlockStatement  = grammar.Nonterminal("BRANCH_BLOCK_STATEMENT")
)

// branchGrammar derives if statements with optional else clauses. Nested
// branches are rare enough that the expected number of branches inside a
// branch stays below one.
func branchGrammar(l *Language) *grammar.Grammar {
	p := grammar.NewProduction
	return grammar.MustNew(branchStatement,
		p(branchStatement, 1, ifStatement),

		p(ifStatement, 0.5, NewEOL(), "if ", conditionList, " {", branchBlock, NewEOL(), "}").Labeled("branch.if"),
		p(ifStatement, 0.5, NewEOL(), "if ", conditionList, " {", branchBlock, NewEOL(), "}", elseClause).Labeled("branch.if-else"),
		p(elseClause, 1, " else {", branchBlock, NewEOL(), "}"),

		p(conditionList, 0.8, condition).Labeled("branch.condition"),
		p(conditionList, 0.2, condition, ", ", conditionList).Labeled("branch.conditions"),
		p(condition, 1, l.Expression(Bool)),

		p(branchBlock, 1, NewBlock(), branchBlockStatements),
		p(branchBlockStatements, 0.6, branchBlockStatement, branchBlockStatements).Labeled("branch.statements"),
		p(branchBlockStatements, 0.4, branchBlockStatement).Labeled("branch.last-statement"),
		p(branchBlockStatement, 0.8, NewAssignment(nil)).Labeled("branch.assignment"),
		p(branchBlockStatement, 0.2, branchStatement).Labeled("branch.nested"),
	)
}
