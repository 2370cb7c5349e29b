package parser

// Keyword code points dispatched by the declaration and statement parsers
// (spec.md §4.C: "Recursive-descent, emoji-keyword dispatched").
//
// The table-of-keywords approach — a flat map from code point to parse
// action, checked once at the top of each recursive-descent level — mirrors
// how the teacher's lang/parser.go dispatches on lex.FunctTok against its
// operator table (lang/op/op.go's OpTable.Get) rather than hand-written
// if/else chains.
const (
	kwPackageImport = '📦'
	kwProtocolDecl  = '🐊'
	kwEnumDecl      = '🦃'
	kwNativeBinary  = '📻'
	kwVersionDecl   = '🆚'
	kwClassDecl     = '🐇'
	kwExtensionDecl = '🐋'

	kwMethodDecl      = '🐖'
	kwTypeMethodDecl  = '🐏'
	kwInitializerDecl = '🆕'
	kwInstanceVarDecl = '🍦'
	kwConformsTo      = '🤝'

	kwFinal                 = '🔏'
	kwOverride              = '🐐'
	kwPublicAccess          = '🍑'
	kwProtectedAccess       = '🍐'
	kwPrivateAccess         = '🔒'
	kwClassSide             = '🐫'
	kwRequiredInit          = '🔑'
	kwCanReturnNothingness  = '🍬'

	kwArrow = '➡' // return-type arrow

	kwVarDecl      = '🍇'
	kwFrozenMarker = '🧊'
	kwAssign       = '🖊'
	kwIf           = '🍊'
	kwElseIf       = '🍋'
	kwElse         = '🍉'
	kwWhile        = '🔁'
	kwForList      = '🚂'
	kwForRange     = '🚃'
	kwForEnumerable = '🚋'
	kwReturn       = '🍎'
	kwSuperInit    = '🔝'
	kwSelf         = '🐕'
	kwClosure      = '🌂'
	kwCapturedCall = '🎣'
	kwSafeCall     = '⁉'

	kwCastClass     = '🐶'
	kwCastProtocol  = '🐱'
	kwCastPrimitive = '🐭'

	kwBlockOpen  = '🍱'
	kwBlockClose = '🍚'
	kwArgSep     = '🔸'

	kwList  = '🍨'
	kwDict  = '🍳'
	kwRange = '🎢'

	kwNothingness = '❓'
)

var accessKeywords = map[rune]int{
	kwPublicAccess:    0,
	kwProtectedAccess: 1,
	kwPrivateAccess:   2,
}
