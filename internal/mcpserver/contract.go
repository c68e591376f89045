package mcpserver

// DirectiveFormat describes the inline markup that organize_note acts on.
const DirectiveFormat = `# Directive Format

A note may carry inline instructions for the organizer. They are written in
one of two forms and are removed from the note once it is organized.

## Forms

1. **Tag:** ` + "`" + `[AI指令: instruction]` + "`" + ` anywhere in the body.
2. **Comment line:** ` + "`" + `// AI: instruction` + "`" + ` running to the end of the line.

## Scope

A directive applies to the text that follows it, up to the next directive or
the end of the note. Text before the first directive is kept as written.

## Dividers

A line containing only ` + "`" + `---` + "`" + ` separates sections. The organizer
keeps dividers in place.

## Tags

Words starting with ` + "`" + `#` + "`" + ` (for example ` + "`" + `#周报` + "`" + `) are tags. They
are indexed for filtering and must be preserved when rewriting.

## Example

` + "```" + `markdown
会议记录

[AI指令: 整理成要点列表]
张三说下周上线，李四说还需要测试，王五负责文档。

// AI: 翻译成英文
本周进展顺利。 #周报
` + "```" + `
`
